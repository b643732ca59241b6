package introspect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schemaplex/schemaplex/database"
	"github.com/schemaplex/schemaplex/dialect"
	"github.com/schemaplex/schemaplex/ir"
	"github.com/schemaplex/schemaplex/typemap"
)

type ExistingTable struct {
	TableName   string
	Comment     string
	Columns     []ExistingColumn
	ForeignKeys []ExistingForeignKey
}

type ExistingColumn struct {
	ColumnName    string
	DataType      string
	UDTName       string
	IsNullable    bool
	ColumnDefault *string
	IsPrimaryKey  bool
	IsUnique      bool
}

type ExistingForeignKey struct {
	ConstraintName   string
	ColumnName       string
	ReferencesTable  string
	ReferencesColumn string
}

// IntrospectDatabase reads every base table in the public schema with its
// columns, foreign keys, enum types and table comments.
func IntrospectDatabase(ctx context.Context) ([]ExistingTable, map[string][]string, error) {
	pool, err := database.GetPool()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to get connection pool: %v", err)
	}

	tablesQuery := `
	SELECT t.table_name, COALESCE(obj_description(c.oid), '')
	FROM information_schema.tables t
	JOIN pg_class c ON c.relname = t.table_name
	JOIN pg_namespace n ON n.oid = c.relnamespace AND n.nspname = t.table_schema
	WHERE t.table_schema = 'public' AND t.table_type='BASE TABLE'
	ORDER BY t.table_name;
	`

	rows, err := pool.Query(ctx, tablesQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("querying tables: %v", err)
	}
	defer rows.Close()

	var tables []ExistingTable
	for rows.Next() {
		var t ExistingTable
		if err := rows.Scan(&t.TableName, &t.Comment); err != nil {
			return nil, nil, fmt.Errorf("scanning table name: %v", err)
		}
		tables = append(tables, t)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("iterating table rows: %v", rows.Err())
	}

	for i := range tables {
		columns, err := getColumns(ctx, pool, tables[i].TableName)
		if err != nil {
			return nil, nil, fmt.Errorf("getting columns for table %s: %v", tables[i].TableName, err)
		}
		foreignKeys, err := getForeignKeys(ctx, pool, tables[i].TableName)
		if err != nil {
			return nil, nil, fmt.Errorf("getting foreign keys for table %s: %v", tables[i].TableName, err)
		}
		tables[i].Columns = columns
		tables[i].ForeignKeys = foreignKeys
	}

	enums, err := getEnumTypes(ctx, pool)
	if err != nil {
		return nil, nil, fmt.Errorf("getting enum types: %v", err)
	}

	return tables, enums, nil
}

// Connect returns a database connection for use by other packages
func Connect() (*pgx.Conn, error) {
	ctx := context.Background()
	return database.GetConnection(ctx)
}

var entityComment = regexp.MustCompile(`entity:\s*([A-Za-z][A-Za-z0-9]*)`)

// Entities converts the introspected catalog into canonical entities.
// Column types map through the SQL dialect's registry bindings; enum
// columns use the values recorded in pg_enum. Foreign-key columns become
// relationship fields and the trailing _id suffix is dropped from the
// field name.
func Entities(tables []ExistingTable, enums map[string][]string, tm *typemap.Registry) ([]ir.Entity, dialect.Diagnostics) {
	var diags dialect.Diagnostics

	entityNames := map[string]string{}
	for _, t := range tables {
		if m := entityComment.FindStringSubmatch(t.Comment); m != nil {
			entityNames[t.TableName] = m[1]
		} else {
			entityNames[t.TableName] = toPascalCase(t.TableName)
		}
	}

	out := make([]ir.Entity, 0, len(tables))
	for _, t := range tables {
		ent := ir.Entity{Name: entityNames[t.TableName]}

		fkByColumn := map[string]ExistingForeignKey{}
		for _, fk := range t.ForeignKeys {
			fkByColumn[fk.ColumnName] = fk
		}

		for _, col := range t.Columns {
			f := ir.Field{
				Required: !col.IsNullable,
				Unique:   col.IsUnique || col.IsPrimaryKey,
				Default:  normalizeDefault(col.ColumnDefault),
			}

			if fk, ok := fkByColumn[col.ColumnName]; ok {
				target, known := entityNames[fk.ReferencesTable]
				if !known {
					target = toPascalCase(fk.ReferencesTable)
				}
				f.Name = strings.TrimSuffix(col.ColumnName, "_id")
				f.Type = ir.RefTo(target)
				f.ReferencedEntity = target
				f.Cardinality = ir.ManyToOne
				ent.Fields = append(ent.Fields, f)
				continue
			}

			f.Name = col.ColumnName
			if values, ok := enums[col.UDTName]; ok {
				f.Type = ir.EnumOf(values...)
			} else if col.DataType == "ARRAY" {
				item, ok := tm.ToIR("sqlddl", strings.TrimPrefix(col.UDTName, "_"), typemap.Modifiers{})
				if !ok {
					diags.Warnf(t.TableName+"."+col.ColumnName, "unmapped array element type %q, using text", col.UDTName)
					item = ir.Text
				}
				f.Type = ir.ListOf(item)
			} else {
				token := col.DataType
				if token == "USER-DEFINED" {
					token = col.UDTName
				}
				mapped, ok := tm.ToIR("sqlddl", token, typemap.Modifiers{})
				if !ok {
					diags.Warnf(t.TableName+"."+col.ColumnName, "unmapped column type %q, using text", token)
					mapped = ir.Text
				}
				f.Type = mapped
			}
			ent.Fields = append(ent.Fields, f)
		}

		out = append(out, ir.DetectPatterns(ent))
	}
	return out, diags
}

func getColumns(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]ExistingColumn, error) {
	columnsQuery := `
	SELECT
		c.column_name,
		c.data_type,
		c.udt_name,
		(c.is_nullable = 'YES') as is_nullable,
		c.column_default,
		(CASE WHEN tc.constraint_type = 'PRIMARY KEY' THEN true ELSE false END) as is_primary,
		(CASE WHEN tc.constraint_type = 'UNIQUE' THEN true ELSE false END) as is_unique
	FROM information_schema.columns c
	LEFT JOIN information_schema.key_column_usage kcu
		ON c.table_name = kcu.table_name AND c.column_name = kcu.column_name
	LEFT JOIN information_schema.table_constraints tc
		ON kcu.constraint_name = tc.constraint_name AND kcu.table_name = tc.table_name
	WHERE c.table_schema = 'public' AND c.table_name = $1
	ORDER BY c.ordinal_position;
	`

	rows, err := pool.Query(ctx, columnsQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %v", err)
	}
	defer rows.Close()

	var columns []ExistingColumn
	for rows.Next() {
		var col ExistingColumn
		if err := rows.Scan(
			&col.ColumnName,
			&col.DataType,
			&col.UDTName,
			&col.IsNullable,
			&col.ColumnDefault,
			&col.IsPrimaryKey,
			&col.IsUnique,
		); err != nil {
			return nil, fmt.Errorf("scanning column: %v", err)
		}
		columns = append(columns, col)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating column rows: %v", rows.Err())
	}

	return columns, nil
}

func getForeignKeys(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]ExistingForeignKey, error) {
	foreignKeysQuery := `
	SELECT
		tc.constraint_name,
		kcu.column_name,
		ccu.table_name AS foreign_table_name,
		ccu.column_name AS foreign_column_name
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage AS ccu
		ON ccu.constraint_name = tc.constraint_name
		AND ccu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = 'public'
		AND tc.table_name = $1;
	`

	rows, err := pool.Query(ctx, foreignKeysQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %v", err)
	}
	defer rows.Close()

	var foreignKeys []ExistingForeignKey
	for rows.Next() {
		var fk ExistingForeignKey
		if err := rows.Scan(
			&fk.ConstraintName,
			&fk.ColumnName,
			&fk.ReferencesTable,
			&fk.ReferencesColumn,
		); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %v", err)
		}
		foreignKeys = append(foreignKeys, fk)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating foreign key rows: %v", rows.Err())
	}

	return foreignKeys, nil
}

func getEnumTypes(ctx context.Context, pool *pgxpool.Pool) (map[string][]string, error) {
	enumsQuery := `
	SELECT t.typname, e.enumlabel
	FROM pg_type t
	JOIN pg_enum e ON e.enumtypid = t.oid
	JOIN pg_namespace n ON n.oid = t.typnamespace AND n.nspname = 'public'
	ORDER BY t.typname, e.enumsortorder;
	`

	rows, err := pool.Query(ctx, enumsQuery)
	if err != nil {
		return nil, fmt.Errorf("querying enum types: %v", err)
	}
	defer rows.Close()

	enums := map[string][]string{}
	for rows.Next() {
		var name, label string
		if err := rows.Scan(&name, &label); err != nil {
			return nil, fmt.Errorf("scanning enum label: %v", err)
		}
		enums[name] = append(enums[name], label)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating enum rows: %v", rows.Err())
	}

	return enums, nil
}

// normalizeDefault strips the ::type casts Postgres appends to stored
// defaults so 'active'::order_status comes back as the declared value.
func normalizeDefault(d *string) *string {
	if d == nil {
		return nil
	}
	v := *d
	if idx := strings.Index(v, "::"); idx >= 0 {
		v = v[:idx]
	}
	v = strings.Trim(v, "'")
	if v == "" {
		return nil
	}
	return &v
}

func toPascalCase(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}
