package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	progressTable = "local_progress"
	eventsTable   = "model_call_events"
)

var (
	// LocalProgressColumns holds the columns for the "local_progress" table.
	LocalProgressColumns = []*schema.Column{
		{Name: "storage_key", Type: field.TypeString, Size: 255},
		{Name: "data", Type: field.TypeString, Size: 2147483647},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// LocalProgressTable holds one JSON progress blob per storage key.
	LocalProgressTable = &schema.Table{
		Name:       progressTable,
		Columns:    LocalProgressColumns,
		PrimaryKey: []*schema.Column{LocalProgressColumns[0]},
	}

	// ModelCallEventsColumns holds the columns for the "model_call_events" table.
	ModelCallEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "prompt_tokens", Type: field.TypeInt, Default: 0},
		{Name: "completion_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "finish_reason", Type: field.TypeString, Default: ""},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "error_kind", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// ModelCallEventsTable records every chat completion attempt.
	ModelCallEventsTable = &schema.Table{
		Name:       eventsTable,
		Columns:    ModelCallEventsColumns,
		PrimaryKey: []*schema.Column{ModelCallEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "modelcallevent_purpose",
				Unique:  false,
				Columns: []*schema.Column{ModelCallEventsColumns[4]},
			},
			{
				Name:    "modelcallevent_created_at",
				Unique:  false,
				Columns: []*schema.Column{ModelCallEventsColumns[1]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		LocalProgressTable,
		ModelCallEventsTable,
	}
)
