package repository

const schemaSQL = `
CREATE TABLE IF NOT EXISTS transactions (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    description          TEXT NOT NULL,
    amount               TEXT NOT NULL,
    category             TEXT,
    date_ns              INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tax_records (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    financial_year       TEXT NOT NULL,
    total_income         TEXT NOT NULL,
    deductions           TEXT NOT NULL,
    sources              TEXT NOT NULL,
    old_regime_tax       TEXT NOT NULL,
    new_regime_tax       TEXT NOT NULL,
    savings              TEXT NOT NULL,
    recommendation       TEXT NOT NULL,
    savings_suggestion   TEXT,
    tax_tips             TEXT NOT NULL,
    timestamp_ns         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS savings_records (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    monthly_income       TEXT NOT NULL,
    monthly_expense      TEXT NOT NULL,
    current_savings      TEXT NOT NULL,
    potential_savings    TEXT NOT NULL,
    wasteful_spends      TEXT NOT NULL,
    ai_advice            TEXT,
    timestamp_ns         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS loans (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    lender               TEXT NOT NULL,
    loan_type            TEXT NOT NULL,
    amount               TEXT NOT NULL,
    outstanding          TEXT NOT NULL,
    start_date_ns        INTEGER NOT NULL,
    status               TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date_ns);
CREATE INDEX IF NOT EXISTS idx_tax_records_user_ts ON tax_records(user_id, timestamp_ns);
CREATE INDEX IF NOT EXISTS idx_savings_records_user_ts ON savings_records(user_id, timestamp_ns);
CREATE INDEX IF NOT EXISTS idx_loans_user ON loans(user_id);
`
