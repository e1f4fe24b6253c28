package utils

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Allowed image file extensions
var allowedImageExtensions = []string{
	".png",
	".jpg",
	".jpeg",
	".webp",
	".gif",
}

// Maximum URL length to prevent abuse
const maxImageURLLength = 2048

// Image list limits
const (
	MaxImagesPerMessage = 5
	MaxBookingPhotos    = 10
)

// ValidateImageRef accepts either a path served by the upload collaborator
// ("/uploads/<file>") or an absolute HTTPS URL, pointing at an image file.
func ValidateImageRef(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return errors.New("image reference cannot be empty")
	}
	if len(ref) > maxImageURLLength {
		return errors.New("image URL too long (max 2048 characters)")
	}

	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "vbscript:") ||
		strings.Contains(lower, "<script") {
		return errors.New("unsafe image URL detected")
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return errors.New("invalid image URL format")
	}

	switch {
	case parsed.Scheme == "" && parsed.Host == "":
		if !strings.HasPrefix(parsed.Path, "/uploads/") || strings.Contains(parsed.Path, "..") {
			return errors.New("relative image paths must live under /uploads/")
		}
	case parsed.Scheme != "https":
		return errors.New("only HTTPS image URLs are allowed")
	}

	ext := strings.ToLower(path.Ext(parsed.Path))
	for _, allowed := range allowedImageExtensions {
		if ext == allowed {
			return nil
		}
	}
	return errors.New("URL must point to an image file (.png, .jpg, .jpeg, .webp, .gif)")
}

// ValidateImageRefs validates the images attached to a chat message.
func ValidateImageRefs(refs []string) error {
	return validateImageList(refs, MaxImagesPerMessage)
}

// ValidateBookingPhotos validates the photos attached to a booking request.
func ValidateBookingPhotos(refs []string) error {
	return validateImageList(refs, MaxBookingPhotos)
}

func validateImageList(refs []string, max int) error {
	if len(refs) > max {
		return fmt.Errorf("too many images (max %d)", max)
	}
	for _, ref := range refs {
		if err := ValidateImageRef(ref); err != nil {
			return err
		}
	}
	return nil
}
