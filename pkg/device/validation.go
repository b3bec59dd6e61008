package device

import (
	"errors"
	"github.com/go-playground/validator/v10"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"reflect"
	"strings"
)

var validate = newValidator()

// newValidator reads the binding tags and reports json field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateStruct(path *field.Path, obj interface{}) field.ErrorList {
	var allErrs field.ErrorList
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return append(allErrs, field.InternalError(path, err))
	}
	for _, fe := range ves {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		if fe.Tag() == "required" {
			allErrs = append(allErrs, field.Required(path.Child(ns), ""))
			continue
		}
		allErrs = append(allErrs, field.Invalid(path.Child(ns), fe.Value(), "failed on "+fe.Tag()+"="+fe.Param()))
	}
	return allErrs
}
