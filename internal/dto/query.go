package dto

type QueryRequest struct {
	Query string `json:"query" validate:"required"`
}

type QueryResponse struct {
	Response string `json:"response"`
}
