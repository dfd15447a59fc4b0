package dto

type CreateUserRequest struct {
	FullName        string `json:"fullName" validate:"required,max=120"`
	ProfileImageURL string `json:"profileImageUrl" validate:"omitempty,url"`
}
