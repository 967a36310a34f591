// Package mail envía los CFDI por correo y guarda el formato activo del mensaje.
package mail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
)

// DefaultFormat formato usado mientras no exista archivo.
var DefaultFormat = entity.EmailFormat{
	Subject:   "CFDI {{.Serie}}{{.Folio}} de {{.IssuerName}}",
	Body:      "Estimado(a) {{.ReceiverName}}:\n\nAdjuntamos el comprobante fiscal con folio fiscal {{.UUID}} por un total de {{.Total}}.\n\nSaludos.",
	AttachPDF: true,
}

// FormatStore formato activo del correo en un archivo JSON.
// Lecturas concurrentes sobre la copia en memoria; cada Update reescribe el
// archivo completo y gana la última escritura.
type FormatStore struct {
	path    string
	now     func() time.Time
	mu      sync.RWMutex
	current entity.EmailFormat
}

// NewFormatStore carga el archivo si existe. Con path vacío solo vive en memoria.
func NewFormatStore(path string) (*FormatStore, error) {
	s := &FormatStore{path: path, now: time.Now, current: DefaultFormat}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mail: leer formato: %w", err)
	}
	var f entity.EmailFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("mail: formato %s: %w", path, err)
	}
	s.current = f
	return s, nil
}

// Get devuelve una copia del formato activo.
func (s *FormatStore) Get() entity.EmailFormat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.current
	f.CC = append([]string(nil), s.current.CC...)
	return f
}

// Update valida las plantillas, persiste y reemplaza el formato activo.
func (s *FormatStore) Update(f entity.EmailFormat) (entity.EmailFormat, error) {
	if strings.TrimSpace(f.Subject) == "" || strings.TrimSpace(f.Body) == "" {
		return entity.EmailFormat{}, fmt.Errorf("asunto y cuerpo son obligatorios: %w", domain.ErrInvalidInput)
	}
	if _, _, err := Render(f, entity.MailData{}); err != nil {
		return entity.EmailFormat{}, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}
	f.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		if err := writeJSON(s.path, f); err != nil {
			return entity.EmailFormat{}, err
		}
	}
	s.current = f
	return f, nil
}

// writeJSON escribe en un temporal y renombra para no dejar archivos a medias.
func writeJSON(path string, f entity.EmailFormat) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("mail: serializar formato: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".email-format-*.json")
	if err != nil {
		return fmt.Errorf("mail: crear temporal: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("mail: escribir formato: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("mail: escribir formato: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("mail: guardar formato: %w", err)
	}
	return nil
}

// Render aplica los datos del comprobante a las plantillas del formato.
func Render(f entity.EmailFormat, data entity.MailData) (subject, body string, err error) {
	if subject, err = execute("asunto", f.Subject, data); err != nil {
		return "", "", err
	}
	if body, err = execute("cuerpo", f.Body, data); err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func execute(name, text string, data entity.MailData) (string, error) {
	tpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("plantilla de %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("plantilla de %s: %w", name, err)
	}
	return buf.String(), nil
}
