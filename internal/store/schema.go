package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pipeline_results (
    filter               TEXT NOT NULL,
    data_version         TEXT NOT NULL,
    payload              BLOB NOT NULL,
    computed_at          TEXT NOT NULL,
    PRIMARY KEY (filter, data_version)
);

CREATE INDEX IF NOT EXISTS idx_results_version ON pipeline_results(data_version);
`
