package domain

// GoalPrototype is a suggested goal users can pick when creating their own.
// Goals refer to it by ID only.
type GoalPrototype struct {
	ID          string
	Name        string
	Description string
	Active      bool
}
