// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bitcom

import (
	"mime"
	"path/filepath"
	"strings"
)

const (
	DefaultMediaType = "application/octet-stream"

	EncodingBinary = "binary"
	EncodingUtf8   = "utf-8"
)

type mediaTypeEntry struct {
	mediaType string
	encoding  string
}

var mediaTypes = map[string]mediaTypeEntry{
	// Images
	"png": {mediaType: "image/png", encoding: EncodingBinary},
	"jpg": {mediaType: "image/jpeg", encoding: EncodingBinary},
	// Documents
	"html": {mediaType: "text/html", encoding: EncodingUtf8},
	"css":  {mediaType: "text/css", encoding: EncodingUtf8},
	"js":   {mediaType: "text/javascript", encoding: EncodingUtf8},
	// Audio
	"mp3": {mediaType: "audio/mp3", encoding: EncodingBinary},
}

// MediaTypeFor guesses the media type and encoding for a file name
func MediaTypeFor(filename string) (string, string) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if entry, ok := mediaTypes[ext]; ok {
		return entry.mediaType, entry.encoding
	}
	if ext != "" {
		if guessed := mime.TypeByExtension("." + ext); guessed != "" {
			// Drop parameters such as "; charset=utf-8"
			mediaType, params, err := mime.ParseMediaType(guessed)
			if err == nil {
				if strings.EqualFold(params["charset"], EncodingUtf8) ||
					strings.HasPrefix(mediaType, "text/") {
					return mediaType, EncodingUtf8
				}
				return mediaType, EncodingBinary
			}
		}
	}
	return DefaultMediaType, EncodingBinary
}
