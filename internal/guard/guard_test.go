package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		statement string
		want      Intent
		keyword   string
	}{
		{"plain select", "SELECT rowid, text FROM memory WHERE memory MATCH 'milk'", Read, ""},
		{"ordering", "select rowid, text from memory order by timestamp desc limit 5", Read, ""},
		{"cte", "WITH recent AS (SELECT rowid FROM memory) SELECT * FROM recent", Read, ""},
		{"column containing keyword", "SELECT is_deleted FROM memory", Read, ""},
		{"delete", "DELETE FROM memory WHERE rowid = 1", Write, "DELETE"},
		{"lower case drop", "drop table memory", Write, "DROP"},
		{"mixed case update", "UpDaTe notes SET text = 'x'", Write, "UPDATE"},
		{"insert", "INSERT INTO notes (text) VALUES ('x')", Write, "INSERT"},
		{"stacked statement", "SELECT 1; DROP TABLE notes", Write, "DROP"},
		{"alter", "ALTER TABLE notes ADD COLUMN x", Write, "ALTER"},
		{"attach", "ATTACH DATABASE 'x.db' AS x", Write, "ATTACH"},
		{"keyword in literal", "SELECT rowid FROM memory WHERE memory MATCH 'update'", Write, "UPDATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.statement)
			assert.Equal(t, tt.want, v.Intent)
			assert.Equal(t, tt.keyword, v.Keyword)
		})
	}
}

func TestRefusal(t *testing.T) {
	msg := Refusal(Classify("delete from memory"), "delete_memories")
	assert.Contains(t, msg, "DELETE")
	assert.Contains(t, msg, "delete_memories")
	assert.Equal(t, "write", Write.String())
}
