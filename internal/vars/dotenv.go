package vars

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/reqdeck/reqdeck/internal/errdef"
)

// LoadDotEnv reads a dotenv-style file into an Environment-scope variable
// collection. Entries keep file order, so a key redefined further down
// shadows the earlier one exactly like a duplicate inside any other scope.
func LoadDotEnv(path string) (entries []Variable, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "open env file %s", path)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errdef.Wrap(errdef.CodeFilesystem, closeErr, "close env file %s", path)
		}
	}()
	return parseDotEnv(f, path)
}

func parseDotEnv(r io.Reader, path string) ([]Variable, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Variable
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		key, value, err := parseDotEnvLine(line, lineNumber)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Variable{
			Key:     key,
			Value:   value,
			Enabled: true,
			Source:  SourceManual,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "read env file %s", path)
	}
	return entries, nil
}

func parseDotEnvLine(line string, lineNumber int) (string, string, error) {
	if after, ok := strings.CutPrefix(line, "export "); ok {
		line = strings.TrimSpace(after)
	}

	idx := strings.IndexByte(line, '=')
	if idx < 0 {
		return "", "", errdef.New(errdef.CodeParse, "dotenv line %d: expected KEY=value", lineNumber)
	}
	key := strings.TrimSpace(line[:idx])
	if key == "" {
		return "", "", errdef.New(errdef.CodeParse, "dotenv line %d: missing key", lineNumber)
	}

	value, err := parseDotEnvValue(strings.TrimSpace(line[idx+1:]), lineNumber)
	if err != nil {
		return "", "", err
	}
	return key, value, nil
}

func parseDotEnvValue(raw string, lineNumber int) (string, error) {
	if raw == "" {
		return "", nil
	}
	switch raw[0] {
	case '"', '\'':
		quote := raw[0]
		end := strings.IndexByte(raw[1:], quote)
		if end < 0 {
			return "", errdef.New(errdef.CodeParse, "dotenv line %d: unterminated quoted value", lineNumber)
		}
		trailer := strings.TrimSpace(raw[end+2:])
		if trailer != "" && trailer[0] != '#' && trailer[0] != ';' {
			return "", errdef.New(errdef.CodeParse, "dotenv line %d: unexpected content after quoted value", lineNumber)
		}
		return raw[1 : end+1], nil
	default:
		return stripInlineComment(raw), nil
	}
}

func stripInlineComment(value string) string {
	inWhitespace := false
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case ' ', '\t':
			inWhitespace = true
		case '#', ';':
			if i == 0 || inWhitespace {
				return strings.TrimSpace(value[:i])
			}
			inWhitespace = false
		default:
			inWhitespace = false
		}
	}
	return strings.TrimSpace(value)
}
