// Package config loads the YAML description of a signal graph and the server
// around it.
//
// # Configuration File Structure
//
//	name: shop
//	server:
//	  address: ":8080"
//	  send_buffer: 64
//	  write_timeout: 10s
//	log:
//	  level: info
//	metrics:
//	  enabled: true
//	  path: /metrics
//	tracing:
//	  enabled: false
//	snapshot:
//	  driver: disk          # "", disk or s3
//	  path: signals.snapshot.json
//	  interval: 30s
//	signals:
//	  - name: price
//	    type: number
//	    value: 10
//	  - name: qty
//	    type: number
//	    value: 2
//	computed:
//	  - name: total
//	    op: product
//	    deps: [price, qty]
//
// Environment variables override the file: SIGNALS_ADDR, SIGNALS_LOG_LEVEL,
// SIGNALS_SNAPSHOT_PATH and SIGNALS_S3_BUCKET.
package config
