package domain

// CategoryInfo is a category enriched with its position in the hierarchy.
type CategoryInfo struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	Description      string `json:"description,omitempty"`
	Icon             string `json:"icon,omitempty"`
	ParentID         string `json:"parent_id,omitempty"`
	Level            int    `json:"level"`
	Path             string `json:"path"`
	ResourceCount    int    `json:"resource_count,omitempty"`
	SubcategoryCount int    `json:"subcategory_count,omitempty"`
}

// Breadcrumb is one element of a category navigation trail.
type Breadcrumb struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	URL   string `json:"url"`
	Level int    `json:"level"`
}

// CategoryHierarchy is the full navigation context around one category.
type CategoryHierarchy struct {
	Current     *CategoryInfo  `json:"current,omitempty"`
	Ancestors   []CategoryInfo `json:"ancestors"`
	Siblings    []CategoryInfo `json:"siblings"`
	Children    []CategoryInfo `json:"children"`
	Breadcrumbs []Breadcrumb   `json:"breadcrumbs"`
}
