// Package config loads weft settings from weft.yaml or weft.json.
//
// # Configuration File Structure
//
//	scheduler:
//	  defaultPriority: user-visible
//	  maxFrameIterations: 100
//	  debug: false
//	telemetry:
//	  metrics: true
//	  namespace: weft
//	  tracing: false
//	devtools:
//	  addr: localhost:7070
//	  eventBuffer: 256
//	  treeTimeout: 2s
//	log:
//	  level: info
//	  format: text
//
// The JSON form uses the same keys.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rt := core.New(backend, exec, core.WithConfig(cfg.Core()))
package config
