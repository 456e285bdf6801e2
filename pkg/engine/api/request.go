package api

// AdmissionRequest is a request to authorize scheduling of a workload,
// carrying one or more container image references.
type AdmissionRequest struct {
	// UID identifies the admission request for audit correlation.
	UID string `json:"uid,omitempty"`

	// Namespace is the namespace the workload is scheduled into.
	Namespace string `json:"namespace"`

	// Kind is the resource kind, e.g. `Pod`.
	Kind string `json:"kind"`

	// Operation is the admission operation, e.g. `CREATE`.
	Operation string `json:"operation,omitempty"`

	// Images lists every container image reference in the workload.
	Images []string `json:"images"`
}
