package profile

type CreateProfileRequest struct {
	ClerkID   string `json:"clerk_id" validate:"required"`
	Username  string `json:"username" validate:"required"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type UpdateProfileRequest struct {
	Username  string `json:"username,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
