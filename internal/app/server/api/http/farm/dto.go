package farm

import "farmsync/internal/domain/farm"

type listOutput struct {
	Body farm.ListResponse
}

type createInput struct {
	Body farm.CreateRequest
}

type findInput struct {
	ID int64 `path:"id" example:"1" doc:"ID фермы"`
}

type updateInput struct {
	ID   int64 `path:"id" example:"1" doc:"ID фермы"`
	Body farm.UpdateRequest
}

type output struct {
	Body *farm.Farm
}
