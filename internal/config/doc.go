/*
Package config provides configuration management for storageprobe.

Configuration is layered: compiled-in defaults, then a YAML file, then
STORAGEPROBE_* environment variables, then CLI flag overrides applied by
the command layer. Each configured provider has a named entry mapping to
a ProviderConfig validated before the provider is ever constructed, so an
invalid configuration is a construction-time failure, never a runtime
surprise.

Example configuration file:

	global:
	  log_level: INFO
	  metrics_port: 8080

	providers:
	  local:
	    type: local
	    base_dir: /var/lib/storageprobe
	  staging:
	    type: s3
	    bucket: probe-staging
	    region: us-west-2
	  onprem:
	    type: minio
	    endpoint: minio.internal:9000
	    bucket: probe
	    access_key_id: probe
	    secret_access_key: probe-secret

	benchmark:
	  object_size: 1048576
	  large_object_size: 33554432
	  concurrency: 10
*/
package config
