package publish

import (
	"errors"
	"fmt"
	"strings"

	pqcatalog "github.com/fraugster/parquet-catalog"
)

// CreateTableCommand renders the aws CLI invocation that creates table in
// target.Database, quoted for POSIX shells.
func CreateTableCommand(target Target, table *pqcatalog.TableDefinition) (string, error) {
	if target.Database == "" {
		return "", errors.New("database name is empty")
	}

	input, err := json.Marshal(table)
	if err != nil {
		return "", fmt.Errorf("encoding table input failed: %w", err)
	}

	args := []string{"aws", "glue", "create-table"}
	if target.Region != "" {
		args = append(args, "--region", target.Region)
	}
	args = append(args, "--database-name", target.Database, "--table-input", string(input))

	quoted := make([]string, 0, len(args))
	for _, a := range args {
		quoted = append(quoted, shellQuote(a))
	}
	return strings.Join(quoted, " "), nil
}

func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, needsQuoting) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuoting(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_./:=@,+%", r):
		return false
	}
	return true
}
