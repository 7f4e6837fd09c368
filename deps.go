//go:build deps

package freefleet

// Force module dependencies for packages used across the project.
import (
	_ "github.com/eclipse/paho.mqtt.golang"
	_ "github.com/go-chi/chi/v5"
	_ "github.com/google/uuid"
	_ "github.com/segmentio/kafka-go"
	_ "gopkg.in/yaml.v3"
)
