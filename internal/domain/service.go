package domain

import "time"

const (
	ServiceAuth           = "auth-service"
	ServiceDoctor         = "doctor-service"
	ServicePatient        = "patient-service"
	ServiceAppointment    = "appointment-service"
	ServiceDepartment     = "department-service"
	ServiceMedicalRecords = "medical-records-service"
	ServicePrescription   = "prescription-service"
	ServiceBilling        = "billing-service"
	ServicePayment        = "payment-service"
	ServiceNotification   = "notification-service"
)

var displayNames = map[string]string{
	ServiceAuth:           "Auth service",
	ServiceDoctor:         "Doctor service",
	ServicePatient:        "Patient service",
	ServiceAppointment:    "Appointment service",
	ServiceDepartment:     "Department service",
	ServiceMedicalRecords: "Medical records service",
	ServicePrescription:   "Prescription service",
	ServiceBilling:        "Billing service",
	ServicePayment:        "Payment service",
	ServiceNotification:   "Notification service",
}

// DisplayName is the human label used in error messages.
func DisplayName(service string) string {
	if n, ok := displayNames[service]; ok {
		return n
	}
	return service
}

type ServiceStatus string

const (
	StatusHealthy   ServiceStatus = "healthy"
	StatusUnhealthy ServiceStatus = "unhealthy"
	StatusUnknown   ServiceStatus = "unknown"
)

// ServiceEntry is one backend the gateway knows about. Entries are copied by
// value out of the registry, so holding one never races with the health loop.
type ServiceEntry struct {
	Name      string        `json:"name"`
	BaseURL   string        `json:"url"`
	Status    ServiceStatus `json:"status"`
	LastCheck time.Time     `json:"lastCheck"`
}

func (e ServiceEntry) IsHealthy() bool {
	return e.Status == StatusHealthy
}

func (e ServiceEntry) IsUnhealthy() bool {
	return e.Status == StatusUnhealthy
}

// HealthURL is the probe target for the entry.
func (e ServiceEntry) HealthURL() string {
	return trimTrailingSlash(e.BaseURL) + "/health"
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
