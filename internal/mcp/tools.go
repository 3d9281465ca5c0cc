package mcp

// ToolDefinition describes one MCP tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func object(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var contractIDProp = str("Contract ID")

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Contracts
		{
			Name:        "list_contracts",
			Description: "List the contracts visible to the caller with pending earnings and live session flags",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "get_contract",
			Description: "Get one contract with its pending earnings and active session start",
			InputSchema: object(map[string]any{"contract_id": contractIDProp}, "contract_id"),
		},
		{
			Name:        "create_contract",
			Description: "Create an active hourly contract. Clients are always recorded as the client party",
			InputSchema: object(map[string]any{
				"title":           str("Short contract title"),
				"client_id":       str("Client user ID (admins only; clients use their own id)"),
				"client_name":     str("Client display name"),
				"freelancer_id":   str("Freelancer user ID"),
				"freelancer_name": str("Freelancer display name"),
				"hourly_rate": map[string]any{
					"type":        "number",
					"description": "Rate per hour in base currency units",
					"minimum":     0,
				},
				"payment_cycle": map[string]any{
					"type":        "string",
					"description": "Informational payment cadence",
					"enum":        []string{"weekly", "biweekly", "monthly"},
				},
			}, "freelancer_id", "hourly_rate"),
		},
		{
			Name:        "set_contract_status",
			Description: "Pause, resume or terminate a contract. Terminated is final; open sessions are left running",
			InputSchema: object(map[string]any{
				"contract_id": contractIDProp,
				"status": map[string]any{
					"type": "string",
					"enum": []string{"active", "paused", "terminated"},
				},
			}, "contract_id", "status"),
		},

		// Tracking
		{
			Name:        "start_tracking",
			Description: "Start the work timer on an active contract. Fails if one is already running",
			InputSchema: object(map[string]any{"contract_id": contractIDProp}, "contract_id"),
		},
		{
			Name:        "update_session_notes",
			Description: "Replace the notes of the running session",
			InputSchema: object(map[string]any{
				"contract_id": contractIDProp,
				"notes":       str("Work description so far"),
			}, "contract_id", "notes"),
		},
		{
			Name:        "stop_tracking",
			Description: "Stop the running session and log it as a pending time entry",
			InputSchema: object(map[string]any{
				"contract_id": contractIDProp,
				"notes":       str("Final description (defaults to the session notes)"),
				"session_id":  str("Session being stopped; makes retries return the first result"),
			}, "contract_id"),
		},
		{
			Name:        "pause_tracking",
			Description: "Stop the running session and log it marked as a pause. Start again to resume",
			InputSchema: object(map[string]any{
				"contract_id": contractIDProp,
				"notes":       str("Description of the work before the pause"),
			}, "contract_id"),
		},
		{
			Name:        "force_stop_tracking",
			Description: "Admin only: stop someone else's running session. The time is still logged",
			InputSchema: object(map[string]any{
				"contract_id": contractIDProp,
				"reason":      str("Why the session was stopped"),
			}, "contract_id"),
		},
		{
			Name:        "get_active_session",
			Description: "Get the running session of a contract with its elapsed time",
			InputSchema: object(map[string]any{"contract_id": contractIDProp}, "contract_id"),
		},
		{
			Name:        "list_active_sessions",
			Description: "Admin only: list every running session across contracts",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "list_time_entries",
			Description: "List a contract's time entries, most recent first",
			InputSchema: object(map[string]any{"contract_id": contractIDProp}, "contract_id"),
		},
		{
			Name:        "search_time_entries",
			Description: "Search a contract's time entries by description text",
			InputSchema: object(map[string]any{
				"contract_id": contractIDProp,
				"query":       str("Words to look for"),
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results (default 50)",
				},
			}, "contract_id", "query"),
		},

		// Payments
		{
			Name:        "approve_time_entry",
			Description: "Approve a pending time entry. Approving twice is harmless",
			InputSchema: object(map[string]any{
				"contract_id": contractIDProp,
				"entry_id":    str("Time entry ID"),
			}, "contract_id", "entry_id"),
		},
		{
			Name:        "get_pending_earnings",
			Description: "Sum of earnings on entries not yet paid",
			InputSchema: object(map[string]any{"contract_id": contractIDProp}, "contract_id"),
		},
		{
			Name:        "pay_contract_due",
			Description: "Pay every pending and approved entry of a contract. Returns amount 0 when nothing is due",
			InputSchema: object(map[string]any{
				"contract_id":     contractIDProp,
				"idempotency_key": str("Client-chosen key; repeating it returns the original settlement"),
			}, "contract_id"),
		},
		{
			Name:        "pay_time_entries",
			Description: "Pay a chosen set of entries. Already paid entries are skipped",
			InputSchema: object(map[string]any{
				"contract_id": contractIDProp,
				"entry_ids": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"idempotency_key": str("Client-chosen key; repeating it returns the original settlement"),
			}, "contract_id", "entry_ids"),
		},
		{
			Name:        "list_settlements",
			Description: "List the payments made on a contract, oldest first",
			InputSchema: object(map[string]any{"contract_id": contractIDProp}, "contract_id"),
		},
		{
			Name:        "export_time_entries",
			Description: "Export a contract's entries as CSV (Date,Description,Duration(min),Earnings,Status)",
			InputSchema: object(map[string]any{"contract_id": contractIDProp}, "contract_id"),
		},

		// Activity
		{
			Name:        "get_recent_activity",
			Description: "Recent audit events, newest first. Non-admins must pass contract_id",
			InputSchema: object(map[string]any{
				"contract_id": str("Restrict to one contract"),
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of events (default 50)",
				},
			}),
		},
	}
}
