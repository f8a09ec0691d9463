// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config loads configuration documents into ordered trees.
//
// Every value in a document may reference variables using placeholders
// which are resolved while loading:
//
//	${NAME}              value of NAME, or nothing if NAME is undefined
//	${env:NAME}          same as ${NAME}
//	${NAME:-default}     value of NAME, or "default" if NAME is undefined
//	$$                   a literal "$"
//
// Placeholders are only resolved in values, never in keys. Unquoted values
// which contained a placeholder are typed after resolution, see [Coerce],
// while quoted values always remain strings.
//
// # Basic Usage
//
//	n, err := config.LoadFile(os.DirFS("."), "otel.yaml", config.FormatYAML)
//	if err != nil {
//	    return err
//	}
//
//	endpoint, err := n.Get("exporter", "endpoint").AsString()
//
// Component option blocks are usually decoded into structs:
//
//	type BatchConfig struct {
//	    ScheduleDelay time.Duration `config:"schedule_delay"`
//	    MaxQueueSize  int           `config:"max_queue_size"`
//	}
//
//	var cfg BatchConfig
//	err := n.Get("batch").Decode(&cfg)
package config
