package validation

import "fmt"

// IngredientEntry is one (ingredient, amount) pair of a recipe submission.
type IngredientEntry struct {
	ID     int64 `json:"id" validate:"required,gte=1"`
	Amount int   `json:"amount" validate:"gte=1"`
}

type RecipeFields struct {
	Name        string `json:"name" validate:"required,max=200"`
	Text        string `json:"text" validate:"required"`
	CookingTime int    `json:"cooking_time" validate:"gte=1"`
}

// RecipeCreate checks a full submission: scalar fields, a non-empty tag
// list and a non-empty, duplicate-free ingredient list with amounts >= 1.
func RecipeCreate(fields RecipeFields, image string, tagIDs []int64, entries []IngredientEntry) Violations {
	v := Struct(fields)
	if image == "" {
		v.Add("image", "required", "this field is required")
	}
	checkTags(&v, tagIDs)
	checkIngredients(&v, entries)
	return v
}

// RecipeUpdate checks only what the request supplied. A nil pointer means
// the field was omitted; a supplied empty list is a violation.
func RecipeUpdate(name, text *string, cookingTime *int, tagIDs *[]int64, entries *[]IngredientEntry) Violations {
	var v Violations
	if name != nil {
		if *name == "" {
			v.Add("name", "required", "this field may not be blank")
		} else if len([]rune(*name)) > 200 {
			v.Add("name", "max", "must be at most 200")
		}
	}
	if text != nil && *text == "" {
		v.Add("text", "required", "this field may not be blank")
	}
	if cookingTime != nil && *cookingTime < 1 {
		v.Add("cooking_time", "gte", "must be greater than or equal to 1")
	}
	if tagIDs != nil {
		checkTags(&v, *tagIDs)
	}
	if entries != nil {
		checkIngredients(&v, *entries)
	}
	return v
}

func checkTags(v *Violations, tagIDs []int64) {
	if len(tagIDs) == 0 {
		v.Add("tags", "required", "at least one tag is required")
		return
	}
	seen := make(map[int64]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if _, dup := seen[id]; dup {
			v.Add("tags", "unique", fmt.Sprintf("tag %d is listed more than once", id))
			return
		}
		seen[id] = struct{}{}
	}
}

func checkIngredients(v *Violations, entries []IngredientEntry) {
	if len(entries) == 0 {
		v.Add("ingredients", "required", "at least one ingredient is required")
		return
	}
	seen := make(map[int64]struct{}, len(entries))
	for i, e := range entries {
		if _, dup := seen[e.ID]; dup {
			v.Add("ingredients", "unique", fmt.Sprintf("ingredient %d is listed more than once", e.ID))
		}
		seen[e.ID] = struct{}{}
		if e.Amount < 1 {
			v.Add(fmt.Sprintf("ingredients[%d].amount", i), "gte", "amount must be at least 1")
		}
	}
}

type TagFields struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor6"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

func TagCreate(f TagFields) Violations { return Struct(f) }

type IngredientFields struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}

func IngredientCreate(f IngredientFields) Violations { return Struct(f) }

type RegistrationFields struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=150"`
}

func Registration(f RegistrationFields) Violations { return Struct(f) }

type PasswordFields struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=150"`
}

func PasswordChange(f PasswordFields) Violations { return Struct(f) }
