// Package taxonomy loads and indexes the compliance framework hierarchy
// (function -> category -> subcategory). The tree is read-only reference
// data shared by every import session.
package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tbialecki/catmap/pkg/models"
)

// Document mirrors the taxonomy collaborator's response shape.
type Document struct {
	FrameworkCode string        `json:"frameworkCode"`
	Functions     []FunctionDoc `json:"functions"`
}

type FunctionDoc struct {
	Code       string        `json:"code"`
	Name       string        `json:"name"`
	Categories []CategoryDoc `json:"categories"`
}

type CategoryDoc struct {
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	Subcategories []SubcategoryDoc `json:"subcategories"`
}

type SubcategoryDoc struct {
	Code    string `json:"code"`
	Outcome string `json:"outcome"`
}

// Tree is the indexed taxonomy. Lookups are by code; child slices keep the
// document's display order.
type Tree struct {
	FrameworkCode string

	functions     []models.FrameworkNode
	categories    map[string][]models.FrameworkNode // function code -> categories
	subcategories map[string][]models.FrameworkNode // category code -> subcategories
	byCode        map[models.FrameworkLevel]map[string]models.FrameworkNode
}

// Load reads and parses a taxonomy JSON file.
func Load(filePath string) (*Tree, error) {
	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file '%s': %w", filePath, err)
	}

	var doc Document
	if err := json.Unmarshal(bytes, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy file '%s': %w", filePath, err)
	}

	return FromDocument(doc)
}

// FromDocument indexes a taxonomy document into a Tree.
func FromDocument(doc Document) (*Tree, error) {
	t := &Tree{
		FrameworkCode: doc.FrameworkCode,
		categories:    make(map[string][]models.FrameworkNode),
		subcategories: make(map[string][]models.FrameworkNode),
		byCode: map[models.FrameworkLevel]map[string]models.FrameworkNode{
			models.LevelFunction:    {},
			models.LevelCategory:    {},
			models.LevelSubcategory: {},
		},
	}

	for fi, fn := range doc.Functions {
		if len(fn.Categories) == 0 {
			return nil, fmt.Errorf("function %s has no categories", fn.Code)
		}
		fnNode := models.FrameworkNode{
			Code:         fn.Code,
			Name:         fn.Name,
			Level:        models.LevelFunction,
			DisplayOrder: fi,
		}
		t.functions = append(t.functions, fnNode)
		t.byCode[models.LevelFunction][fn.Code] = fnNode

		for ci, cat := range fn.Categories {
			if len(cat.Subcategories) == 0 {
				return nil, fmt.Errorf("category %s has no subcategories", cat.Code)
			}
			catNode := models.FrameworkNode{
				Code:         cat.Code,
				Name:         cat.Name,
				Level:        models.LevelCategory,
				ParentCode:   fn.Code,
				DisplayOrder: ci,
			}
			t.categories[fn.Code] = append(t.categories[fn.Code], catNode)
			t.byCode[models.LevelCategory][cat.Code] = catNode

			for si, sub := range cat.Subcategories {
				subNode := models.FrameworkNode{
					Code:         sub.Code,
					Name:         sub.Outcome,
					Level:        models.LevelSubcategory,
					ParentCode:   cat.Code,
					DisplayOrder: si,
				}
				t.subcategories[cat.Code] = append(t.subcategories[cat.Code], subNode)
				t.byCode[models.LevelSubcategory][sub.Code] = subNode
			}
		}
	}

	if len(t.functions) == 0 {
		return nil, fmt.Errorf("taxonomy %s has no functions", doc.FrameworkCode)
	}
	return t, nil
}

// Functions returns the functions in display order.
func (t *Tree) Functions() []models.FrameworkNode {
	return t.functions
}

// Categories returns the categories of a function in display order.
func (t *Tree) Categories(functionCode string) []models.FrameworkNode {
	return t.categories[functionCode]
}

// Subcategories returns the subcategories of a category in display order.
func (t *Tree) Subcategories(categoryCode string) []models.FrameworkNode {
	return t.subcategories[categoryCode]
}

// Node looks up a node by level and code.
func (t *Tree) Node(level models.FrameworkLevel, code string) (models.FrameworkNode, bool) {
	n, ok := t.byCode[level][code]
	return n, ok
}

// DefaultFunctionCode returns the first function's code; manual-mapping
// placeholders start from it.
func (t *Tree) DefaultFunctionCode() string {
	return t.functions[0].Code
}
