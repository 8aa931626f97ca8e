package ginblog

const MaxPageSize = 100

type SortField struct {
	Field     string `json:"field"`
	Direction int    `json:"direction"`
}

type PageRequest struct {
	Page int       `json:"page"`
	Size int       `json:"size"`
	Sort SortField `json:"sort"`
}

type PageResponse[T interface{}] struct {
	Contents         []T         `json:"content"`
	NumberOfElements int         `json:"numberOfElements"`
	Pageable         PageRequest `json:"pageable"`
	TotalPages       int         `json:"totalPages"`
	TotalElements    int         `json:"totalElements"`
}

// Document is implemented by every type persisted through MongoRepository.
type Document interface {
	GetCollectionName() string
}

type EmptyResponse struct{}

type StatusResponse struct {
	Status int
	Body   interface{}
}

func Created(body interface{}) StatusResponse {
	return StatusResponse{Status: 201, Body: body}
}
