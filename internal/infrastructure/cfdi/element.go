package cfdi

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/jhoicas/cfdi-api/internal/domain"
)

// Document árbol XML en construcción. Guarda el primer error de validación para que
// las secciones encadenen atributos sin revisar cada llamada; si hubo error el
// documento nunca se serializa.
type Document struct {
	doc *etree.Document
	err error
}

// Element nodo del árbol.
type Element struct {
	el  *etree.Element
	doc *Document
}

func NewDocument() *Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	return &Document{doc: doc}
}

// Root crea el elemento raíz.
func (d *Document) Root(tag string) *Element {
	return &Element{el: d.doc.CreateElement(tag), doc: d}
}

// Fail registra err si todavía no hay uno.
func (d *Document) Fail(err error) {
	if d.err == nil && err != nil {
		d.err = err
	}
}

// Err primer error registrado.
func (d *Document) Err() error { return d.err }

// String serializa con sangría de dos espacios.
func (d *Document) String() (string, error) {
	if d.err != nil {
		return "", d.err
	}
	d.doc.Indent(2)
	return d.doc.WriteToString()
}

// Attr agrega un atributo. El valor se recorta; vacío y obligatorio ⇒ MissingRequiredFieldError
// con el nombre del campo, vacío y opcional ⇒ no se emite. El escape de & " < > lo hace el serializador.
func (e *Element) Attr(name, value string, required bool) error {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			err := domain.MissingField(name, e.el.FullTag())
			e.doc.Fail(err)
			return err
		}
		return nil
	}
	e.el.CreateAttr(name, value)
	return nil
}

// Required atributo obligatorio, encadenable.
func (e *Element) Required(name, value string) *Element {
	_ = e.Attr(name, value, true)
	return e
}

// Optional atributo opcional, encadenable.
func (e *Element) Optional(name, value string) *Element {
	_ = e.Attr(name, value, false)
	return e
}

// Child agrega un hijo.
func (e *Element) Child(tag string) *Element {
	return &Element{el: e.el.CreateElement(tag), doc: e.doc}
}

// Fail registra un error de la sección (estructural, por ejemplo).
func (e *Element) Fail(err error) { e.doc.Fail(err) }

// Failed indica si el documento ya tiene un error.
func (e *Element) Failed() bool { return e.doc.err != nil }
