package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// View is a saved order-list filter, referenced by alias.
type View struct {
	Alias       string `json:"alias"`
	Tab         string `json:"tab,omitempty"`
	OrderType   string `json:"order_type,omitempty"`
	PackageType string `json:"package_type,omitempty"`
	Payment     string `json:"payment,omitempty"`
	Status      string `json:"status,omitempty"`
	Search      string `json:"search,omitempty"`
	BranchID    int64  `json:"branch_id,omitempty"`
}

type ViewsFile struct {
	Views []View `json:"views"`
}

func LoadViews() ([]View, error) {
	path, err := ViewsPath()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []View{}, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("views path is a directory: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var payload ViewsFile
	if err := json.NewDecoder(file).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Views, nil
}

func SaveViews(views []View) error {
	if _, err := ensureConfigDir(); err != nil {
		return err
	}

	path, err := ViewsPath()
	if err != nil {
		return err
	}

	sorted := make([]View, len(views))
	copy(sorted, views)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Alias) < strings.ToLower(sorted[j].Alias)
	})

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ViewsFile{Views: sorted})
}

func FindView(views []View, alias string) (View, bool) {
	needle := strings.ToLower(strings.TrimSpace(alias))
	for _, view := range views {
		if strings.ToLower(view.Alias) == needle {
			return view, true
		}
	}
	return View{}, false
}
