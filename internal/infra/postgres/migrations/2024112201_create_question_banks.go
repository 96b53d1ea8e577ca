package migrations

import _ "embed"

//go:embed 0001_create_question_banks.sql
var createQuestionBanksSQL string

func init() {
	Migrations.MustRegister(
		exec(createQuestionBanksSQL),
		exec(`DROP TABLE IF EXISTS question_banks`),
	)
}
