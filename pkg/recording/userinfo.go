package recording

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// UserInfoFileName is the flat key/value file holding user-supplied metadata.
const UserInfoFileName = "user_info.csv"

// WriteUserInfo serializes user-supplied metadata as a two-column CSV file
// with deterministic key order.
func WriteUserInfo(dir string, userInfo map[string]string) error {
	file, err := os.Create(filepath.Join(dir, UserInfoFileName))
	if err != nil {
		return fmt.Errorf("failed to create user info file: %w", err)
	}
	defer file.Close()

	keys := make([]string, 0, len(userInfo))
	for key := range userInfo {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	w := csv.NewWriter(file)
	if err := w.Write([]string{"key", "value"}); err != nil {
		return fmt.Errorf("failed to write user info header: %w", err)
	}
	for _, key := range keys {
		if err := w.Write([]string{key, userInfo[key]}); err != nil {
			return fmt.Errorf("failed to write user info row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush user info: %w", err)
	}
	return nil
}

// ReadUserInfo loads a user info file back into a map.
func ReadUserInfo(dir string) (map[string]string, error) {
	file, err := os.Open(filepath.Join(dir, UserInfoFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open user info file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse user info file: %w", err)
	}

	userInfo := make(map[string]string)
	for i, row := range rows {
		if i == 0 || len(row) != 2 {
			continue
		}
		userInfo[row[0]] = row[1]
	}
	return userInfo, nil
}
