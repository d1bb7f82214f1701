package validator

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

func investigatorValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return strings.TrimSpace(val) != ""
}

// domainValidator matches the source host against the allow-list,
// accepting subdomains of an allowed domain. An empty allow-list
// accepts every host.
func domainValidator(domains []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		raw, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}

		u, err := url.Parse(raw)
		if err != nil {
			return false
		}

		if len(domains) == 0 {
			return true
		}

		host := strings.ToLower(u.Hostname())
		for _, domain := range domains {
			domain = strings.ToLower(strings.TrimSpace(domain))
			if domain == "" {
				continue
			}
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return true
			}
		}
		return false
	}
}

func extensionValidator(extensions []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		filename, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}

		if len(extensions) == 0 {
			return true
		}

		ext := strings.ToLower(filepath.Ext(filename))
		for _, candidate := range extensions {
			candidate = strings.ToLower(strings.TrimSpace(candidate))
			if candidate == "" {
				continue
			}
			if !strings.HasPrefix(candidate, ".") {
				candidate = "." + candidate
			}
			if ext == candidate {
				return true
			}
		}
		return false
	}
}

func sizeValidator(limit int64) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val, ok := fl.Field().Interface().(int64)
		if !ok {
			return false
		}

		return limit <= 0 || val <= limit
	}
}
