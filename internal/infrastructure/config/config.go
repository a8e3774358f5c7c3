package config

import (
	"time"

	"github.com/hms/gateway/internal/domain"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               int      `envconfig:"PORT" default:"3000"`
	Env                string   `envconfig:"ENV" default:"development"`
	LogLevel           string   `envconfig:"LOG_LEVEL" default:"debug"`
	CORSAllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:3100"`
	CORSAllowedMethods []string `envconfig:"CORS_ALLOWED_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	CORSAllowedHeaders []string `envconfig:"CORS_ALLOWED_HEADERS" default:"Origin,Content-Type,Accept,Authorization,X-Request-ID"`
	DoctorOnlyMode     bool     `envconfig:"DOCTOR_ONLY_MODE" default:"false"`

	AuthServiceURL           string `envconfig:"AUTH_SERVICE_URL" default:"http://auth-service:3001"`
	DoctorServiceURL         string `envconfig:"DOCTOR_SERVICE_URL" default:"http://doctor-service:3002"`
	PatientServiceURL        string `envconfig:"PATIENT_SERVICE_URL" default:"http://patient-service:3003"`
	AppointmentServiceURL    string `envconfig:"APPOINTMENT_SERVICE_URL" default:"http://appointment-service:3004"`
	DepartmentServiceURL     string `envconfig:"DEPARTMENT_SERVICE_URL" default:"http://department-service:3005"`
	MedicalRecordsServiceURL string `envconfig:"MEDICAL_RECORDS_SERVICE_URL" default:"http://medical-records-service:3006"`
	PrescriptionServiceURL   string `envconfig:"PRESCRIPTION_SERVICE_URL" default:"http://prescription-service:3007"`
	BillingServiceURL        string `envconfig:"BILLING_SERVICE_URL" default:"http://billing-service:3008"`
	PaymentServiceURL        string `envconfig:"PAYMENT_SERVICE_URL" default:"http://payment-service:3009"`
	NotificationServiceURL   string `envconfig:"NOTIFICATION_SERVICE_URL" default:"http://notification-service:3011"`

	CriticalServices    []string      `envconfig:"CRITICAL_SERVICES" default:"auth-service"`
	HealthCheckInterval time.Duration `envconfig:"HEALTH_CHECK_INTERVAL" default:"30s"`
	HealthCheckTimeout  time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	AuthTimeout    time.Duration `envconfig:"AUTH_TIMEOUT" default:"5s"`
	AuthVerifyPath string        `envconfig:"AUTH_VERIFY_PATH" default:"/api/auth/verify"`
	AuthCacheTTL   time.Duration `envconfig:"AUTH_CACHE_TTL" default:"0s"`

	ProxyTimeout time.Duration `envconfig:"PROXY_TIMEOUT" default:"30s"`
	RoutesFile   string        `envconfig:"ROUTES_FILE" default:""`

	RedisURL         string `envconfig:"REDIS_URL" default:""`
	RateLimitEnabled bool   `envconfig:"RATE_LIMIT_ENABLED" default:"false"`
	RateLimitUserRPM int    `envconfig:"RATE_LIMIT_USER_RPM" default:"300"`
	RateLimitIPRPM   int    `envconfig:"RATE_LIMIT_IP_RPM" default:"100"`

	TraceExporter     string `envconfig:"TRACE_EXPORTER" default:"none"`
	TraceOTLPEndpoint string `envconfig:"TRACE_OTLP_ENDPOINT" default:""`
	TraceServiceName  string `envconfig:"TRACE_SERVICE_NAME" default:"api-gateway"`

	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`

	Version, Commit, BuildDate string
}

func Load(version, commit, buildDate string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.Version, cfg.Commit, cfg.BuildDate = version, commit, buildDate
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ServiceURLs returns the backend base URLs in registration order.
func (c *Config) ServiceURLs() []ServiceURL {
	return []ServiceURL{
		{domain.ServiceAuth, c.AuthServiceURL},
		{domain.ServiceDoctor, c.DoctorServiceURL},
		{domain.ServicePatient, c.PatientServiceURL},
		{domain.ServiceAppointment, c.AppointmentServiceURL},
		{domain.ServiceDepartment, c.DepartmentServiceURL},
		{domain.ServiceMedicalRecords, c.MedicalRecordsServiceURL},
		{domain.ServicePrescription, c.PrescriptionServiceURL},
		{domain.ServiceBilling, c.BillingServiceURL},
		{domain.ServicePayment, c.PaymentServiceURL},
		{domain.ServiceNotification, c.NotificationServiceURL},
	}
}

type ServiceURL struct {
	Name string
	URL  string
}
