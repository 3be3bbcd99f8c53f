package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// htmlExts are the page file extensions considered by StreamFromDir.
var htmlExts = map[string]bool{".html": true, ".htm": true}

// StreamFromDir extracts records from every HTML page in dir and streams a
// single envelope JSON object to w, suitable as loader input.
//
// Behavior:
//   - stable ordering by filename
//   - unreadable/unparseable pages are skipped
//   - each record is tagged with its origin page under "source_page"
func StreamFromDir(w io.Writer, dir string, mf *MappingFile, listKey string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	if listKey == "" {
		listKey = mf.ListKey
	}
	if listKey == "" {
		listKey = "航班列表"
	}

	head, err := json.Marshal(listKey)
	if err != nil {
		return fmt.Errorf("encode list key: %w", err)
	}
	if _, err := fmt.Fprintf(w, "{%s:[", head); err != nil {
		return fmt.Errorf("write envelope head: %w", err)
	}

	enc := json.NewEncoder(w)
	first := true
	emit := func(obj map[string]any) error {
		if len(obj) == 0 {
			return nil
		}
		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				return fmt.Errorf("write comma: %w", err)
			}
		}
		first = false
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		return nil
	}

	for _, e := range entries {
		if e.IsDir() || !htmlExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}

		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}

		recs, err := Records(string(b), mf)
		if err != nil {
			continue
		}
		for _, r := range recs {
			if len(r) == 0 {
				continue
			}
			r["source_page"] = e.Name()
			if err := emit(r); err != nil {
				return err
			}
		}
	}

	if _, err := io.WriteString(w, "]}"); err != nil {
		return fmt.Errorf("write envelope tail: %w", err)
	}
	return nil
}
