package repository

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github.com/clearvision/midnight-tickets/internal/repository")
