package middleware

import (
	"net"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator configures the binding validator with JSON field names and
// the custom client-identifier rule
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// clientid accepts a MAC address or an IP address, the two identifier
	// forms a captive portal can know its client by
	_ = v.RegisterValidation("clientid", validateClientIdentifier)
}

func validateClientIdentifier(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return false
	}
	if _, err := net.ParseMAC(value); err == nil {
		return true
	}
	return net.ParseIP(value) != nil
}
