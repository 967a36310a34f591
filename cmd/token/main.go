// token emite un JWT para consumir la API sin un servicio de usuarios.
//
// Uso: go run ./cmd/token -user ops@empresa.mx -role facturista [-minutes 480]
// Toma JWT_SECRET y JWT_ISSUER de la misma configuración que la API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/cfdi-api/pkg/config"
	"github.com/jhoicas/cfdi-api/pkg/jwt"
)

func main() {
	user := flag.String("user", "", "identificador del usuario (sub)")
	role := flag.String("role", jwt.RoleConsulta, "admin, facturista o consulta")
	minutes := flag.Int("minutes", 0, "vigencia en minutos (0 = JWT_EXPIRATION_MINUTES)")
	flag.Parse()

	switch *role {
	case jwt.RoleAdmin, jwt.RoleFacturista, jwt.RoleConsulta:
	default:
		fail("rol desconocido: %s", *role)
	}
	if *user == "" {
		fail("falta -user")
	}

	cfg, err := config.Load()
	if err != nil {
		fail("cargar configuración: %v", err)
	}
	exp := cfg.JWT.Expiration
	if *minutes > 0 {
		exp = *minutes
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, *user, *role, cfg.JWT.Issuer, exp)
	if err != nil {
		fail("generar token: %v", err)
	}
	fmt.Println(tok)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
