package v1

// Action is one write in a batch set request.
type Action struct {
	Name  string      `json:"name" binding:"required,min=1,max=256"`
	Value interface{} `json:"value"`
}
