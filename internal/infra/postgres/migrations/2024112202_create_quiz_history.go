package migrations

import _ "embed"

//go:embed 0002_create_quiz_history.sql
var createQuizHistorySQL string

func init() {
	Migrations.MustRegister(
		exec(createQuizHistorySQL),
		exec(`DROP TABLE IF EXISTS quiz_history`),
	)
}
