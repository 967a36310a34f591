package config

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	CFDI    CFDIConfig
	Catalog CatalogConfig
	PAC     PACConfig
	SMTP    SMTPConfig
	Mail    MailConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host      string
	Port      int
	BodyLimit int // bytes
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CFDIConfig identidad del emisor y valores por defecto de los comprobantes.
type CFDIConfig struct {
	IssuerRFC         string
	IssuerName        string
	IssuerRegime      string
	IssuerPostalCode  string
	DefaultPostalCode string // sustituye al comodín 00000
	CartaPorteVersion string // 3.1, 3.0 o 2.0
}

// CatalogConfig rutas de los catálogos del SAT (vacío = sin catálogo).
type CatalogConfig struct {
	ProductsCSV string
	TablesYAML  string
}

// PACConfig credenciales del PAC.
type PACConfig struct {
	StampURL      string
	CancelURL     string
	Username      string
	Password      string
	Timeout       time.Duration // 0 = sin límite
	StampAttempts int
	StampDelay    time.Duration
}

// SMTPConfig servidor de correo saliente.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// MailConfig formato de correo persistido.
type MailConfig struct {
	FormatPath string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, PAC_USERNAME, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo .env en el directorio de trabajo
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "cfdi-api"),
			LogLevel: getString(v, "APP_LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "cfdi"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "cfdi-api"),
		},
		HTTP: HTTPConfig{
			Host:      getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:      getInt(v, "HTTP_PORT", 8080),
			BodyLimit: getInt(v, "HTTP_BODY_LIMIT", 4<<20),
		},
		CFDI: CFDIConfig{
			IssuerRFC:         getString(v, "CFDI_ISSUER_RFC", ""),
			IssuerName:        getString(v, "CFDI_ISSUER_NAME", ""),
			IssuerRegime:      getString(v, "CFDI_ISSUER_REGIME", "601"),
			IssuerPostalCode:  getString(v, "CFDI_ISSUER_POSTAL_CODE", ""),
			DefaultPostalCode: getString(v, "CFDI_DEFAULT_POSTAL_CODE", ""),
			CartaPorteVersion: getString(v, "CFDI_CARTAPORTE_VERSION", "3.1"),
		},
		Catalog: CatalogConfig{
			ProductsCSV: getString(v, "CATALOG_PRODUCTS_CSV", ""),
			TablesYAML:  getString(v, "CATALOG_TABLES_YAML", ""),
		},
		PAC: PACConfig{
			StampURL:      getString(v, "PAC_STAMP_URL", ""),
			CancelURL:     getString(v, "PAC_CANCEL_URL", ""),
			Username:      getString(v, "PAC_USERNAME", ""),
			Password:      getString(v, "PAC_PASSWORD", ""),
			Timeout:       getDuration(v, "PAC_HTTP_TIMEOUT", 0),
			StampAttempts: getInt(v, "PAC_STAMP_ATTEMPTS", 3),
			StampDelay:    getDuration(v, "PAC_STAMP_DELAY", time.Second),
		},
		SMTP: SMTPConfig{
			Host:     getString(v, "SMTP_HOST", ""),
			Port:     getInt(v, "SMTP_PORT", 587),
			User:     getString(v, "SMTP_USER", ""),
			Password: getString(v, "SMTP_PASSWORD", ""),
			From:     getString(v, "SMTP_FROM", ""),
		},
		Mail: MailConfig{
			FormatPath: getString(v, "MAIL_FORMAT_PATH", "email-format.json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	for name, value := range map[string]string{
		"CFDI_ISSUER_RFC":         c.CFDI.IssuerRFC,
		"CFDI_ISSUER_NAME":        c.CFDI.IssuerName,
		"CFDI_ISSUER_POSTAL_CODE": c.CFDI.IssuerPostalCode,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("config: faltan variables %s", strings.Join(missing, ", "))
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	if s, ok := v.Get(key).(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return def
		}
		return n
	}
	return v.GetInt(key)
}

// getDuration acepta "30s", "2m" o segundos enteros.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	s := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
