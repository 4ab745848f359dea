package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
tables:
  - table: customers
    source: data/customers.csv
    columns:
      - {name: customer_id, type: int}
      - {name: full_name, type: string}
      - {name: country, type: string, nullable: true}
    primary_key: [customer_id]
  - table: orders
    source: data/orders.csv
    columns:
      - {name: order_id, type: int}
      - {name: customer_id, type: int}
      - {name: total_amount_jpy, type: decimal}
      - {name: order_date, type: date}
    primary_key: [order_id]
    foreign_keys:
      - {column: customer_id, ref_table: customers, ref_column: customer_id}
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(writeManifest(t, sampleManifest))
	require.NoError(t, err)
	require.Len(t, m.Tables, 2)

	customers := m.Table("customers")
	require.NotNil(t, customers)
	assert.Equal(t, 0, customers.Priority)
	assert.Equal(t, "data/customers.csv", customers.Source)
	assert.True(t, customers.Column("country").Nullable)

	orders := m.Table("orders")
	require.NotNil(t, orders)
	assert.Equal(t, 1, orders.Priority)
	assert.Equal(t, []string{"customers"}, orders.Dependencies())
}

func TestLoadManifestUnknownRefTable(t *testing.T) {
	bad := `
tables:
  - table: orders
    source: data/orders.csv
    columns:
      - {name: order_id, type: int}
      - {name: customer_id, type: int}
    primary_key: [order_id]
    foreign_keys:
      - {column: customer_id, ref_table: customers, ref_column: customer_id}
`
	_, err := LoadManifest(writeManifest(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown table customers")
}

func TestLoadManifestBadColumnType(t *testing.T) {
	bad := `
tables:
  - table: cars
    source: data/cars.csv
    columns:
      - {name: car_id, type: serial}
`
	_, err := LoadManifest(writeManifest(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestSelfReferenceIsNotADependency(t *testing.T) {
	spec := TableSpec{
		Name: "employee",
		ForeignKeys: []ForeignKey{
			{Column: "manager_id", RefTable: "employee", RefColumn: "employee_id"},
			{Column: "office_id", RefTable: "office", RefColumn: "office_id"},
		},
	}
	assert.Equal(t, []string{"office"}, spec.Dependencies())
}
