// AngelaMos | 2026
// dto.go

package category

import (
	"time"
)

type ListParams struct {
	Popular bool
	Limit   int
}

type CreateCategoryRequest struct {
	Name        string  `json:"name"                  validate:"required,min=1,max=100"`
	Slug        string  `json:"slug"                  validate:"required,slug,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug,omitempty"        validate:"omitempty,slug,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type DeleteCategoriesRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,uuid"`
}

type CategoryResponse struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	ArticleCount *int      `json:"article_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type DeleteResult struct {
	Deleted       int `json:"deleted"`
	MovedArticles int `json:"moved_articles"`
}

func ToCategoryResponse(c *Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func ToCategoryResponseList(rows []WithCount) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(rows))
	for i := range rows {
		resp := ToCategoryResponse(&rows[i].Category)
		count := rows[i].ArticleCount
		resp.ArticleCount = &count
		out = append(out, resp)
	}
	return out
}
