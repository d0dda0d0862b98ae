package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ips_material_requests_created_total",
		Help: "Material requests created, by origin (direct or usage report).",
	}, []string{"origin"})

	assignmentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ips_delivery_assignments_created_total",
		Help: "Delivery assignments created.",
	})

	assignmentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ips_delivery_assignment_transitions_total",
		Help: "Delivery assignment status transitions, by target status.",
	}, []string{"status"})

	requestsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ips_material_requests_delivered_total",
		Help: "Material requests marked delivered.",
	})

	materialUsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ips_material_used_units_total",
		Help: "Units of material reported as used against project allocations.",
	})

	importedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ips_import_rows_total",
		Help: "Spreadsheet rows processed, by kind and outcome.",
	}, []string{"kind", "outcome"})
)
