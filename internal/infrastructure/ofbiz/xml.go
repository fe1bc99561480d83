package ofbiz

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/flowlogic-api/internal/application/ingestion"
)

// Entidades del entity-engine XML de OFBiz que se leen.
const (
	entityInventoryItem = "InventoryItem"
	entityProduct       = "Product"
)

// Atributos de InventoryItem con nombre distinto al campo canónico.
var xmlAttrAliases = map[string]string{
	"quantityOnHandTotal":     ingestion.FieldOnHand,
	"availableToPromiseTotal": ingestion.FieldATP,
	"currencyUomId":           ingestion.FieldCurrency,
}

// decodeXML lee <entity-engine-xml> con elementos InventoryItem y Product.
// El checksum se calcula sobre la forma canónica (C14N) para ignorar diferencias de formato.
func decodeXML(raw []byte) (*ingestion.Document, error) {
	canon, err := canonicalize(raw)
	if err != nil {
		return nil, fmt.Errorf("XML inválido: %w", err)
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("XML inválido: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("XML sin elemento raíz")
	}

	out := &ingestion.Document{Products: make(map[string]string), Checksum: checksum(canon)}
	for _, el := range root.ChildElements() {
		switch localName(el.Tag) {
		case entityInventoryItem:
			out.Rows = append(out.Rows, elementFields(el))
		case entityProduct:
			f := elementFields(el)
			id := str(f[ingestion.FieldProductID])
			name := str(f[ingestion.FieldProductName])
			if name == "" {
				name = str(f[ingestion.FieldInternalName])
			}
			if id != "" && name != "" {
				out.Products[id] = name
			}
		}
	}
	return out, nil
}

// elementFields toma atributos y sub-elementos de texto como campos.
func elementFields(el *etree.Element) map[string]any {
	fields := make(map[string]any, len(el.Attr))
	for _, a := range el.Attr {
		fields[canonicalField(a.Key)] = a.Value
	}
	for _, child := range el.ChildElements() {
		fields[canonicalField(localName(child.Tag))] = strings.TrimSpace(child.Text())
	}
	return fields
}

func canonicalField(name string) string {
	if alias, ok := xmlAttrAliases[name]; ok {
		return alias
	}
	return name
}

func localName(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

func canonicalize(raw []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Entity = map[string]string{}
	dec.CharsetReader = charsetReader
	return c14n.Canonicalize(dec)
}

// charsetReader soporta exportaciones declaradas en ISO-8859-1 (Derby/OFBiz antiguas).
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	case "utf-8", "utf8", "":
		return input, nil
	}
	return nil, fmt.Errorf("charset no soportado: %s", label)
}
