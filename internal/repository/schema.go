package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const resumesTable = "resumes"

type columnTypes struct {
	id, text, json, time string
}

func typesFor(d string) columnTypes {
	if d == dialect.Postgres {
		return columnTypes{id: "uuid", text: "text", json: "jsonb", time: "timestamptz"}
	}
	return columnTypes{id: "text", text: "text", json: "json", time: "datetime"}
}

// Migrate creates the resumes table and its indexes when missing.
func Migrate(ctx context.Context, db *DB) error {
	ty := typesFor(db.dialect)
	create, args := entsql.Dialect(db.dialect).
		CreateTable(resumesTable).
		IfNotExists().
		Columns(
			entsql.Column("id").Type(ty.id).Attr("NOT NULL"),
			entsql.Column("owner_id").Type(ty.id).Attr("NULL"),
			entsql.Column("file_name").Type(ty.text).Attr("NOT NULL"),
			entsql.Column("original_file_name").Type(ty.text).Attr("NOT NULL"),
			entsql.Column("storage_key").Type(ty.text).Attr("NOT NULL"),
			entsql.Column("file_size").Type("bigint").Attr("NOT NULL"),
			entsql.Column("media_type").Type(ty.text).Attr("NOT NULL"),
			entsql.Column("extracted_text").Type(ty.text).Attr("NOT NULL DEFAULT ''"),
			entsql.Column("parsed_data").Type(ty.json).Attr("NOT NULL"),
			entsql.Column("processing_status").Type(ty.text).Attr("NOT NULL"),
			entsql.Column("processing_error").Type(ty.text).Attr("NULL"),
			entsql.Column("ai_confidence").Type("integer").Attr("NULL"),
			entsql.Column("ai_raw_response").Type(ty.text).Attr("NULL"),
			entsql.Column("full_name").Type(ty.text).Attr("NULL"),
			entsql.Column("email").Type(ty.text).Attr("NULL"),
			entsql.Column("skills").Type(ty.text).Attr("NOT NULL DEFAULT ''"),
			entsql.Column("created_at").Type(ty.time).Attr("NOT NULL"),
			entsql.Column("updated_at").Type(ty.time).Attr("NOT NULL"),
		).
		PrimaryKey("id").
		Query()
	if err := db.Driver.Exec(ctx, create, args, nil); err != nil {
		return fmt.Errorf("create %s: %w", resumesTable, err)
	}

	for _, stmt := range []string{
		"CREATE INDEX IF NOT EXISTS resumes_owner_created_idx ON resumes (owner_id, created_at)",
		"CREATE INDEX IF NOT EXISTS resumes_status_idx ON resumes (processing_status)",
	} {
		if err := db.Driver.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
