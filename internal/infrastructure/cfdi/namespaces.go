package cfdi

import "strings"

// CFDI 4.0 y XML Schema Instance.
const (
	NsCfdi       = "http://www.sat.gob.mx/cfd/4"
	PrefixCfdi   = "cfdi"
	schemaCfdi40 = "http://www.sat.gob.mx/sitio_internet/cfd/4/cfdv40.xsd"
	nsXsi        = "http://www.w3.org/2001/XMLSchema-instance"

	CfdiVersion = "4.0"
)

// Namespace prefijo, URI y esquema de una versión del complemento Carta Porte.
type Namespace struct {
	Version string
	Prefix  string
	URI     string
	Schema  string
}

// Tag nombre calificado con el prefijo.
func (n Namespace) Tag(local string) string { return n.Prefix + ":" + local }

// Is3x las versiones 3.0 y 3.1 comparten IdCCP, DocumentacionAduanera y PesoBrutoVehicular.
func (n Namespace) Is3x() bool { return n.Version != "2.0" }

var cartaPorteNamespaces = map[string]Namespace{
	"3.1": {
		Version: "3.1",
		Prefix:  "cartaporte31",
		URI:     "http://www.sat.gob.mx/CartaPorte31",
		Schema:  "http://www.sat.gob.mx/sitio_internet/cfd/CartaPorte/CartaPorte31.xsd",
	},
	"3.0": {
		Version: "3.0",
		Prefix:  "cartaporte30",
		URI:     "http://www.sat.gob.mx/CartaPorte30",
		Schema:  "http://www.sat.gob.mx/sitio_internet/cfd/CartaPorte/CartaPorte30.xsd",
	},
	"2.0": {
		Version: "2.0",
		Prefix:  "cartaporte20",
		URI:     "http://www.sat.gob.mx/CartaPorte20",
		Schema:  "http://www.sat.gob.mx/sitio_internet/cfd/CartaPorte/CartaPorte20.xsd",
	},
}

// ResolveNamespace 3.1 ⇒ cartaporte31, 3.0 ⇒ cartaporte30, cualquier otro valor ⇒ cartaporte20.
func ResolveNamespace(version string) Namespace {
	if ns, ok := cartaPorteNamespaces[strings.TrimSpace(version)]; ok {
		return ns
	}
	return cartaPorteNamespaces["2.0"]
}
