package store

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	exchange TEXT NOT NULL,
	pair TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS candles (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	interval TEXT NOT NULL,
	seq INTEGER NOT NULL,
	date TEXT NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL,
	PRIMARY KEY (run_id, interval, seq)
);

CREATE TABLE IF NOT EXISTS run_intervals (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	pos INTEGER NOT NULL,
	interval TEXT NOT NULL,
	PRIMARY KEY (run_id, pos),
	UNIQUE (run_id, interval)
);

CREATE INDEX IF NOT EXISTS idx_candles_date ON candles(run_id, interval, date);
`
