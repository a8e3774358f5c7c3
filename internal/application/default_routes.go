package application

import (
	"time"

	"github.com/hms/gateway/internal/domain"
)

const (
	serviceHealthTimeout = 5 * time.Second
	internalRouteTimeout = 10 * time.Second
)

// DefaultRoutes is the built-in routing table. Health sub-paths come before
// their protected prefix so they stay reachable without a token.
func DefaultRoutes(proxyTimeout time.Duration) []domain.ProxyRoute {
	protected := func(prefix, service string) domain.ProxyRoute {
		return domain.ProxyRoute{Prefix: prefix, Service: service, AuthRequired: true, Timeout: proxyTimeout}
	}
	health := func(resource, service string) domain.ProxyRoute {
		prefix := "/api/" + resource + "/health"
		return domain.ProxyRoute{
			Prefix:  prefix,
			Service: service,
			Rewrite: domain.PathRewrite{Pattern: "^" + prefix, Replacement: "/health"},
			Timeout: serviceHealthTimeout,
		}
	}
	internal := func(resource, service string) domain.ProxyRoute {
		return domain.ProxyRoute{
			Prefix:   "/internal/" + resource,
			Service:  service,
			Rewrite:  domain.PathRewrite{Pattern: "^/internal", Replacement: "/api"},
			Timeout:  internalRouteTimeout,
			Internal: true,
		}
	}

	payments := protected("/api/payments", domain.ServicePayment)
	payments.PublicPaths = []string{"/api/payments/webhooks"}

	return []domain.ProxyRoute{
		health("auth", domain.ServiceAuth),
		{Prefix: "/api/auth", Service: domain.ServiceAuth, Timeout: proxyTimeout},

		health("doctors", domain.ServiceDoctor),
		health("patients", domain.ServicePatient),
		health("appointments", domain.ServiceAppointment),
		health("departments", domain.ServiceDepartment),

		protected("/api/doctors", domain.ServiceDoctor),
		protected("/api/patients", domain.ServicePatient),
		protected("/api/appointments", domain.ServiceAppointment),
		protected("/api/departments", domain.ServiceDepartment),
		protected("/api/specialties", domain.ServiceDepartment),
		protected("/api/rooms", domain.ServiceDepartment),
		protected("/api/medical-records", domain.ServiceMedicalRecords),
		protected("/api/prescriptions", domain.ServicePrescription),
		protected("/api/billing", domain.ServiceBilling),
		payments,
		{Prefix: "/api/webhooks", Service: domain.ServicePayment, Timeout: proxyTimeout},
		protected("/api/notifications", domain.ServiceNotification),

		internal("patients", domain.ServicePatient),
		internal("appointments", domain.ServiceAppointment),
		internal("doctors", domain.ServiceDoctor),
		internal("departments", domain.ServiceDepartment),
	}
}
