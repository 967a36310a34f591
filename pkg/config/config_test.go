package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/pkg/config"
)

func setIssuer(t *testing.T) {
	t.Setenv("CFDI_ISSUER_RFC", "EKU9003173C9")
	t.Setenv("CFDI_ISSUER_NAME", "ESCUELA KEMPER URGATE")
	t.Setenv("CFDI_ISSUER_POSTAL_CODE", "42501")
}

func TestLoad_Defaults(t *testing.T) {
	setIssuer(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "3.1", cfg.CFDI.CartaPorteVersion)
	assert.Equal(t, 3, cfg.PAC.StampAttempts)
	assert.Equal(t, time.Second, cfg.PAC.StampDelay)
	assert.Zero(t, cfg.PAC.Timeout, "sin timeout salvo que se configure")
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_Env(t *testing.T) {
	setIssuer(t)
	t.Setenv("PAC_HTTP_TIMEOUT", "45s")
	t.Setenv("PAC_STAMP_DELAY", "2")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("CFDI_CARTAPORTE_VERSION", "2.0")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.PAC.Timeout)
	assert.Equal(t, 2*time.Second, cfg.PAC.StampDelay)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "2.0", cfg.CFDI.CartaPorteVersion)
}

func TestLoad_FaltaEmisor(t *testing.T) {
	t.Setenv("CFDI_ISSUER_RFC", "")
	t.Setenv("CFDI_ISSUER_NAME", "")
	t.Setenv("CFDI_ISSUER_POSTAL_CODE", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CFDI_ISSUER_NAME, CFDI_ISSUER_POSTAL_CODE, CFDI_ISSUER_RFC")
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := config.DBConfig{User: "app", Password: "p@ss/word", Host: "db", Port: 5432, DBName: "cfdi", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/cfdi?sslmode=disable", c.DSN())
	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
