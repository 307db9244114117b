package telemetry

import "go.opentelemetry.io/otel/attribute"

// Allocation attributes, shared by spans and metrics
var (
	AttrRequestID  = attribute.Key("request_id")
	AttrTenantID   = attribute.Key("tenant_id")
	AttrShipmentID = attribute.Key("shipment_id")
	AttrStrategy   = attribute.Key("allocation.strategy")
	AttrOutcome    = attribute.Key("allocation.outcome")
	AttrErrorCode  = attribute.Key("allocation.error_code")
	AttrSuppliers  = attribute.Key("allocation.suppliers")
)

// HTTP server metric attributes
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
)
