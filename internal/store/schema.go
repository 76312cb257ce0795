package store

// Schema is the sqlite DDL applied on open. Statements are idempotent so the
// schema can be re-applied to an existing database.
const Schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id TEXT PRIMARY KEY,
	channel_id TEXT UNIQUE NOT NULL,
	resource_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	calendar_id TEXT NOT NULL,
	sync_token TEXT,
	expiration DATETIME NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_calendar ON subscriptions(calendar_id, status);
CREATE INDEX IF NOT EXISTS idx_subscriptions_expiration ON subscriptions(status, expiration);

CREATE TABLE IF NOT EXISTS calendar_events (
	id TEXT NOT NULL,
	calendar_id TEXT NOT NULL,
	household_id TEXT NOT NULL,
	owner TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	start_at DATETIME NOT NULL,
	end_at DATETIME NOT NULL,
	status TEXT NOT NULL DEFAULT 'confirmed',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (calendar_id, id)
);
CREATE INDEX IF NOT EXISTS idx_events_household_start ON calendar_events(household_id, start_at);

CREATE TABLE IF NOT EXISTS insights (
	id TEXT PRIMARY KEY,
	household_id TEXT NOT NULL,
	type TEXT NOT NULL,
	severity TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	template_data TEXT NOT NULL DEFAULT '{}',
	related_events TEXT NOT NULL DEFAULT '[]',
	recipient TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_insights_dedup ON insights(household_id, type, title, created_at);
CREATE INDEX IF NOT EXISTS idx_insights_status ON insights(status);

CREATE TABLE IF NOT EXISTS trust_scores (
	household_id TEXT NOT NULL,
	action_type TEXT NOT NULL,
	success_count INTEGER NOT NULL DEFAULT 0,
	failure_count INTEGER NOT NULL DEFAULT 0,
	reject_count INTEGER NOT NULL DEFAULT 0,
	auto_approve BOOLEAN NOT NULL DEFAULT 0,
	last_used_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (household_id, action_type)
);

CREATE TABLE IF NOT EXISTS pending_actions (
	id TEXT PRIMARY KEY,
	household_id TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	action_type TEXT NOT NULL,
	risk_level TEXT NOT NULL,
	payload TEXT NOT NULL DEFAULT '{}',
	reason TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	outcome TEXT NOT NULL DEFAULT '',
	expires_at DATETIME NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	decided_at DATETIME,
	finished_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_actions_household ON pending_actions(household_id, status);
CREATE INDEX IF NOT EXISTS idx_actions_expiry ON pending_actions(status, expires_at);

CREATE TABLE IF NOT EXISTS memories (
	household_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0.5,
	source TEXT NOT NULL DEFAULT '',
	expires_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (household_id, kind, key)
);
`
