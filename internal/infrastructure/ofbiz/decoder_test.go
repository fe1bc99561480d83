package ofbiz

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/flowlogic-api/internal/application/ingestion"
)

// ─── JSON ─────────────────────────────────────────────────────────────────────

func TestDecode_JSONArreglo(t *testing.T) {
	in := `[{"productId":"WG-1111","quantityOnHand":8,"availableToPromise":6,"locationSeqId":"FWRD-01","unitCost":"12.50"}]`
	doc, err := NewDecoder().Decode(strings.NewReader(in), ingestion.DecodeOptions{Format: "json"})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "WG-1111", doc.Rows[0]["productId"])
	assert.Equal(t, json.Number("8"), doc.Rows[0]["quantityOnHand"])
	assert.Len(t, doc.Checksum, 64)
}

func TestDecode_JSONEnvuelto(t *testing.T) {
	in := `{"data":[{"productId":"A"},{"productId":"B"}]}`
	doc, err := NewDecoder().Decode(strings.NewReader(in), ingestion.DecodeOptions{Format: "json"})
	require.NoError(t, err)
	assert.Len(t, doc.Rows, 2)
}

func TestDecode_JSONVacio(t *testing.T) {
	doc, err := NewDecoder().Decode(strings.NewReader("  "), ingestion.DecodeOptions{Format: "json"})
	require.NoError(t, err)
	assert.Empty(t, doc.Rows)
}

func TestDecode_JSONInvalido(t *testing.T) {
	_, err := NewDecoder().Decode(strings.NewReader(`[{"productId":`), ingestion.DecodeOptions{Format: "json"})
	assert.Error(t, err)

	_, err = NewDecoder().Decode(strings.NewReader(`{"foo":1}`), ingestion.DecodeOptions{Format: "json"})
	assert.Error(t, err)
}

func TestDecode_JSONRegistroIlegibleNoDescartaArchivo(t *testing.T) {
	in := `[{"productId":"A","quantityOnHand":3,"locationSeqId":"L1"},{"productId":"B","quantityOnHand":4,"locationSeqId":"L2"},"garbage",null]`
	doc, err := NewDecoder().Decode(strings.NewReader(in), ingestion.DecodeOptions{Format: "json"})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 4)
	assert.Equal(t, "A", doc.Rows[0]["productId"])
	assert.Equal(t, "B", doc.Rows[1]["productId"])
	assert.Contains(t, doc.Rows[2][ingestion.FieldRecordError], "registro 3")
	assert.Contains(t, doc.Rows[3][ingestion.FieldRecordError], "registro 4")

	snap, err := ingestion.Normalize(doc.Rows[0], nil)
	require.NoError(t, err)
	assert.Equal(t, "A", snap.SKU)
	_, err = ingestion.Normalize(doc.Rows[2], nil)
	assert.Error(t, err)
}

func TestDecode_JSONEnvueltoConRegistroIlegible(t *testing.T) {
	in := `{"data":[{"productId":"A"},42]}`
	doc, err := NewDecoder().Decode(strings.NewReader(in), ingestion.DecodeOptions{Format: "json"})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 2)
	assert.NotEmpty(t, doc.Rows[1][ingestion.FieldRecordError])
}

func TestDecodeProducts(t *testing.T) {
	in := `[{"productId":"A","productName":"Widget A"},{"productId":"B","internalName":"wb"},{"productId":"C"}]`
	names, err := NewDecoder().DecodeProducts(strings.NewReader(in), ingestion.DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "Widget A", "B": "wb"}, names)
}

// ─── XML ──────────────────────────────────────────────────────────────────────

const entityXML = `<?xml version="1.0" encoding="UTF-8"?>
<entity-engine-xml>
  <Product productId="GZ-1000" internalName="gz" productName="Tiny Gizmo"/>
  <InventoryItem inventoryItemId="9000" productId="GZ-1000" facilityId="WebStoreWarehouse"
      locationSeqId="TLTLTLLL01" quantityOnHandTotal="3" availableToPromiseTotal="1"
      unitCost="15.99" currencyUomId="USD"/>
  <InventoryItem inventoryItemId="9001" productId="GZ-1000">
    <locationSeqId>FWRD-02</locationSeqId>
    <quantityOnHandTotal>4</quantityOnHandTotal>
  </InventoryItem>
</entity-engine-xml>`

func TestDecode_XMLEntityEngine(t *testing.T) {
	doc, err := NewDecoder().Decode(strings.NewReader(entityXML), ingestion.DecodeOptions{Format: "xml"})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "3", doc.Rows[0]["quantityOnHand"])
	assert.Equal(t, "1", doc.Rows[0]["availableToPromise"])
	assert.Equal(t, "USD", doc.Rows[0]["currency"])
	assert.Equal(t, "FWRD-02", doc.Rows[1]["locationSeqId"])
	assert.Equal(t, map[string]string{"GZ-1000": "Tiny Gizmo"}, doc.Products)
}

func TestDecode_XMLChecksumCanonico(t *testing.T) {
	a := `<entity-engine-xml><InventoryItem productId="A" quantityOnHandTotal="1"/></entity-engine-xml>`
	b := `<entity-engine-xml><InventoryItem   quantityOnHandTotal="1"  productId="A"></InventoryItem></entity-engine-xml>`
	da, err := NewDecoder().Decode(strings.NewReader(a), ingestion.DecodeOptions{Format: "xml"})
	require.NoError(t, err)
	db, err := NewDecoder().Decode(strings.NewReader(b), ingestion.DecodeOptions{Format: "xml"})
	require.NoError(t, err)
	assert.Equal(t, da.Checksum, db.Checksum)
}

func TestDecode_XMLLatin1(t *testing.T) {
	in := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><entity-engine-xml><Product productId=\"P1\" productName=\"Ca\xf1a\"/></entity-engine-xml>"
	doc, err := NewDecoder().Decode(strings.NewReader(in), ingestion.DecodeOptions{Format: "xml"})
	require.NoError(t, err)
	assert.Equal(t, "Caña", doc.Products["P1"])
}

func TestDecode_XMLInvalido(t *testing.T) {
	_, err := NewDecoder().Decode(strings.NewReader(`<entity-engine-xml><InventoryItem`), ingestion.DecodeOptions{Format: "xml"})
	assert.Error(t, err)
}

// ─── CSV ──────────────────────────────────────────────────────────────────────

func TestDecode_CSVManhattan(t *testing.T) {
	in := "SKU,Location ID,On Hand Qty,Allocated Qty,Available Qty,Zone\nM-1,PICK-01,10,2,8,A\n"
	doc, err := NewDecoder().Decode(strings.NewReader(in), ingestion.DecodeOptions{Format: "csv", Mapping: "manhattan"})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 1)
	row := doc.Rows[0]
	assert.Equal(t, "M-1", row["productId"])
	assert.Equal(t, "PICK-01", row["locationSeqId"])
	assert.Equal(t, "10", row["quantityOnHand"])
	assert.Equal(t, "2", row["quantityAllocated"])
	assert.Equal(t, "8", row["availableToPromise"])
	assert.Equal(t, "A", row["Zone"])
}

func TestDecode_CSVSAPLatin1(t *testing.T) {
	in := "MATNR,MAKTX,LGPLA,VERME\nS-1,Se\xf1al,BULK-9,3\n"
	doc, err := NewDecoder().Decode(strings.NewReader(in), ingestion.DecodeOptions{Format: "csv", Mapping: "SAP", Encoding: "ISO-8859-1"})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "Señal", doc.Rows[0]["productName"])
	assert.Equal(t, "BULK-9", doc.Rows[0]["locationSeqId"])
}

func TestDecode_CSVGenericoPorDefecto(t *testing.T) {
	in := "\xef\xbb\xbfsku,location,quantity\nG-1,L1,4\n\nG-2,L2,5\n"
	doc, err := NewDecoder().Decode(strings.NewReader(in), ingestion.DecodeOptions{Format: "csv"})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "G-1", doc.Rows[0]["productId"])
	assert.Equal(t, "5", doc.Rows[1]["quantityOnHand"])
}

func TestDecode_CSVLineaIlegibleSigueLeyendo(t *testing.T) {
	in := "sku,location,quantity\nG-1,L1,4\nG-2,L\"2,5\nG-3,L3,6\n"
	doc, err := NewDecoder().Decode(strings.NewReader(in), ingestion.DecodeOptions{Format: "csv"})
	require.NoError(t, err)
	require.Len(t, doc.Rows, 3)
	assert.Equal(t, "G-1", doc.Rows[0]["productId"])
	assert.Contains(t, doc.Rows[1][ingestion.FieldRecordError], "línea 3")
	assert.Equal(t, "G-3", doc.Rows[2]["productId"])
}

func TestDecode_CSVMapeoDesconocido(t *testing.T) {
	_, err := NewDecoder().Decode(strings.NewReader("a\n1\n"), ingestion.DecodeOptions{Format: "csv", Mapping: "oracle"})
	assert.Error(t, err)
}

func TestDecode_FormatoDesconocido(t *testing.T) {
	_, err := NewDecoder().Decode(strings.NewReader("x"), ingestion.DecodeOptions{Format: "xlsx"})
	assert.Error(t, err)
}

func TestDecode_EncodingDesconocido(t *testing.T) {
	_, err := NewDecoder().Decode(strings.NewReader("[]"), ingestion.DecodeOptions{Format: "json", Encoding: "ebcdic"})
	assert.Error(t, err)
}

func TestMappings_EsCopia(t *testing.T) {
	d := NewDecoder()
	m := d.Mappings()
	m[MappingSAP]["MATNR"] = "otro"
	assert.Equal(t, ingestion.FieldProductID, d.Mappings()[MappingSAP]["MATNR"])
	assert.Contains(t, m, MappingManhattan)
}
