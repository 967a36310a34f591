package cfdi_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
)

const stampedIngreso = `<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" xmlns:tfd="http://www.sat.gob.mx/TimbreFiscalDigital"
  Version="4.0" Serie="F" Folio="10" Fecha="2024-05-10T12:00:00" SubTotal="1300.00" Descuento="0.00" Moneda="MXN"
  Total="1481.50" TipoDeComprobante="I" Exportacion="01" MetodoPago="PUE" FormaPago="03" LugarExpedicion="42501">
  <cfdi:CfdiRelacionados TipoRelacion="04">
    <cfdi:CfdiRelacionado UUID="a1b2c3d4-0000-4000-8000-000000000001"/>
  </cfdi:CfdiRelacionados>
  <cfdi:CfdiRelacionados TipoRelacion="07">
    <cfdi:CfdiRelacionado UUID="A1B2C3D4-0000-4000-8000-000000000002"/>
  </cfdi:CfdiRelacionados>
  <cfdi:Emisor Rfc="EKU9003173C9" Nombre="ESCUELA KEMPER URGATE" RegimenFiscal="601"/>
  <cfdi:Receptor Rfc="URE180429TM6" Nombre="UNIVERSIDAD ROBOTICA ESPAÑOLA" DomicilioFiscalReceptor="86991" RegimenFiscalReceptor="601" UsoCFDI="G03"/>
  <cfdi:Conceptos>
    <cfdi:Concepto ClaveProdServ="50202306" Cantidad="1" ClaveUnidad="H87" Descripcion="Refresco" ValorUnitario="1000.00" Importe="1000.00" ObjetoImp="02">
      <cfdi:Impuestos><cfdi:Traslados>
        <cfdi:Traslado Base="1000.00" Impuesto="002" TipoFactor="Tasa" TasaOCuota="0.160000" Importe="160.00"/>
      </cfdi:Traslados></cfdi:Impuestos>
    </cfdi:Concepto>
    <cfdi:Concepto ClaveProdServ="50202306" Cantidad="1" ClaveUnidad="H87" Descripcion="Otro" ValorUnitario="300.00" Importe="300.00" ObjetoImp="02"/>
  </cfdi:Conceptos>
  <cfdi:Impuestos TotalImpuestosTrasladados="241.50" TotalImpuestosRetenidos="20.00">
    <cfdi:Retenciones>
      <cfdi:Retencion Impuesto="001" Importe="12.50"/>
      <cfdi:Retencion Impuesto="002" Importe="7.50"/>
    </cfdi:Retenciones>
    <cfdi:Traslados>
      <cfdi:Traslado Base="1000.00" Impuesto="002" TipoFactor="Tasa" TasaOCuota="0.160000" Importe="160.00"/>
      <cfdi:Traslado Base="100.00" Impuesto="002" TipoFactor="Tasa" TasaOCuota="0.080000" Importe="8.00"/>
      <cfdi:Traslado Base="50.00" Impuesto="002" TipoFactor="Tasa" TasaOCuota="0.000000" Importe="0.00"/>
      <cfdi:Traslado Base="150.00" Impuesto="002" TipoFactor="Exento"/>
      <cfdi:Traslado Base="200.00" Impuesto="003" TipoFactor="Tasa" TasaOCuota="0.265000" Importe="53.00"/>
      <cfdi:Traslado Base="40.00" Impuesto="003" TipoFactor="Tasa" TasaOCuota="0.530000" Importe="21.20"/>
      <cfdi:Traslado Base="10.00" Impuesto="003" TipoFactor="Tasa" TasaOCuota="0.070000" Importe="0.70"/>
    </cfdi:Traslados>
  </cfdi:Impuestos>
  <cfdi:Complemento>
    <tfd:TimbreFiscalDigital Version="1.1" UUID="6e3b4a7f-1111-4abc-9def-123456789abc" FechaTimbrado="2024-05-10T12:01:00"
      RfcProvCertif="SPR190613I52" SelloCFD="abc" NoCertificadoSAT="30001000000500003456" SelloSAT="xyz"/>
  </cfdi:Complemento>
</cfdi:Comprobante>`

const stampedPago = `<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" xmlns:pago20="http://www.sat.gob.mx/Pagos20"
  Version="4.0" Fecha="2024-06-01T10:00:00" SubTotal="0" Moneda="XXX" Total="0" TipoDeComprobante="P" Exportacion="01" LugarExpedicion="42501">
  <cfdi:Emisor Rfc="EKU9003173C9" Nombre="ESCUELA KEMPER URGATE" RegimenFiscal="601"/>
  <cfdi:Receptor Rfc="URE180429TM6" Nombre="UNIVERSIDAD ROBOTICA ESPAÑOLA" DomicilioFiscalReceptor="86991" RegimenFiscalReceptor="601" UsoCFDI="CP01"/>
  <cfdi:Complemento>
    <pago20:Pagos Version="2.0">
      <pago20:Totales TotalTrasladosBaseIVA16="1000.00" TotalTrasladosImpuestoIVA16="160.00" TotalRetencionesIVA="5.00" MontoTotalPagos="1160.00"/>
      <pago20:Pago FechaPago="2024-05-31T12:00:00" FormaDePagoP="03" MonedaP="MXN" Monto="1160.00" NumOperacion="OP-1">
        <pago20:DoctoRelacionado IdDocumento="6e3b4a7f-1111-4abc-9def-123456789abc" Serie="F" Folio="10" MonedaDR="MXN"
          NumParcialidad="1" ImpSaldoAnt="1160.00" ImpPagado="1160.00" ImpSaldoInsoluto="0.00" ObjetoImpDR="02"/>
      </pago20:Pago>
    </pago20:Pagos>
  </cfdi:Complemento>
</cfdi:Comprobante>`

func TestParse_Ingreso(t *testing.T) {
	got := cfdi.NewParser(zerolog.Nop()).Parse([]byte(stampedIngreso))

	require.True(t, got.Valid)
	assert.Equal(t, "I", got.TipoDeComprobante)
	assert.Equal(t, "1481.50", got.Total.StringFixed(2))
	assert.Equal(t, "EKU9003173C9", got.EmisorRFC)
	assert.Equal(t, "G03", got.ReceptorUsoCFDI)
	assert.Equal(t, "6E3B4A7F-1111-4ABC-9DEF-123456789ABC", got.UUID)
	assert.Equal(t, "30001000000500003456", got.NoCertificadoSAT)
	assert.Len(t, got.Concepts, 2)

	tx := got.Taxes
	assert.Equal(t, "160.00", tx.IVA16.StringFixed(2), "solo cuenta el nodo del comprobante")
	assert.Equal(t, "1000.00", tx.BaseIVA16.StringFixed(2))
	assert.Equal(t, "8.00", tx.IVA8.StringFixed(2))
	assert.Equal(t, "50.00", tx.BaseIVA0.StringFixed(2))
	assert.Equal(t, "150.00", tx.BaseExento.StringFixed(2))
	assert.Equal(t, "53.00", tx.IEPS26_5.StringFixed(2))
	assert.Equal(t, "21.20", tx.IEPS53.StringFixed(2))
	assert.Equal(t, "0.70", tx.OtherTransfers.StringFixed(2))
	assert.Equal(t, "12.50", tx.RetencionISR.StringFixed(2))
	assert.Equal(t, "7.50", tx.RetencionIVA.StringFixed(2))
	assert.Equal(t, "241.50", tx.TotalTrasladados.StringFixed(2))

	assert.Equal(t, []string{"A1B2C3D4-0000-4000-8000-000000000001", "A1B2C3D4-0000-4000-8000-000000000002"}, got.RelatedUUIDs)
	assert.Equal(t, "A1B2C3D4-0000-4000-8000-000000000001", got.OriginalUUID, "la relación 04 es la sustitución")
	require.Len(t, got.Relations, 2)
	assert.Equal(t, "07", got.Relations[1].TipoRelacion)
}

func TestParse_Pagos(t *testing.T) {
	got := cfdi.NewParser(zerolog.Nop()).Parse([]byte(stampedPago))

	require.True(t, got.Valid)
	require.Len(t, got.Payments, 1)
	p := got.Payments[0]
	assert.Equal(t, "1160.00", p.Monto.StringFixed(2))
	assert.Equal(t, "OP-1", p.NumOperacion)
	require.Len(t, p.Documents, 1)
	assert.Equal(t, "0.00", p.Documents[0].ImpSaldoInsoluto.StringFixed(2))
	assert.Equal(t, "6E3B4A7F-1111-4ABC-9DEF-123456789ABC", p.Documents[0].IdDocumento)

	require.NotNil(t, got.PaymentTotals)
	assert.Equal(t, "1160.00", got.PaymentTotals.MontoTotalPagos.StringFixed(2))
	assert.Equal(t, "160.00", got.Taxes.IVA16.StringFixed(2), "en un CFDI de pago las cubetas salen de Totales")
	assert.Equal(t, "5.00", got.Taxes.RetencionIVA.StringFixed(2))
}

func TestParse_DocumentoIlegibleDevuelveResultadoVacio(t *testing.T) {
	p := cfdi.NewParser(zerolog.Nop())
	for _, in := range []string{"", "no es xml", "<a><b></a>", `<?xml version="1.0"?><Factura Total="1"/>`} {
		got := p.Parse([]byte(in))
		assert.False(t, got.Valid, "%q", in)
		assert.Empty(t, got.UUID)
		assert.True(t, got.Total.IsZero())
		assert.Nil(t, got.Concepts)
	}
}

func TestParse_LeeLoQueConstruyeElBuilder(t *testing.T) {
	res, err := newTestBuilder().Build(roadRequest())
	require.NoError(t, err)

	got := cfdi.NewParser(zerolog.Nop()).Parse([]byte(res.XML))
	require.True(t, got.Valid)
	assert.Equal(t, fixedCCP, got.IdCCP)
	assert.True(t, got.Total.Equal(res.Total))
	assert.True(t, got.Taxes.IVA16.Equal(res.Tax))
	assert.Empty(t, got.UUID, "sin timbrar")
}
