package options

import (
	"fmt"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"modbusbridge/pkg/broker"
	"net/url"
	"strconv"
	"strings"
)

func Validate(o *Options) []error {
	var errs []error
	if err := o.BaseOptions.ValidateAndApply(); err != nil {
		errs = append(errs, err)
	}
	if p, err := strconv.ParseUint(o.Port, 10, 16); err != nil || p == 0 {
		errs = append(errs, field.Invalid(field.NewPath("port"), o.Port, "must be a port number"))
	}
	if o.Wait <= 0 {
		errs = append(errs, field.Invalid(field.NewPath("graceful-timeout"), o.Wait.String(), "must be positive"))
	}
	if (len(o.CertFile) == 0) != (len(o.KeyFile) == 0) {
		errs = append(errs, field.Required(field.NewPath("keyFile"), "certFile and keyFile must be set together"))
	}
	for _, err := range validateMQTT(&o.MQTT, field.NewPath("mqtt")) {
		errs = append(errs, err)
	}
	if len(o.Units) == 0 {
		errs = append(errs, field.Required(field.NewPath("units"), "at least one unit must be configured"))
	}
	return errs
}

func validateMQTT(m *MQTTOptions, path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	if len(m.Broker) == 0 {
		allErrs = append(allErrs, field.Required(path.Child("broker"), ""))
	} else if u, err := url.Parse(m.Broker); err != nil || len(u.Scheme) == 0 || len(u.Host) == 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("broker"), m.Broker, "must look like tcp://host:port"))
	}
	if m.QoS > 2 {
		allErrs = append(allErrs, field.NotSupported(path.Child("qos"), m.QoS, []string{"0", "1", "2"}))
	}
	if strings.ContainsAny(m.BaseTopic, "#+") || strings.HasSuffix(m.BaseTopic, "/") {
		allErrs = append(allErrs, field.Invalid(path.Child("baseTopic"), m.BaseTopic, "must not contain wildcards or end with /"))
	}
	if m.OutboundSize < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("outboundSize"), m.OutboundSize, fmt.Sprintf("must be >= 0, 0 means %d", broker.DefaultOutboundSize)))
	}
	if m.InboundSize < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("inboundSize"), m.InboundSize, "must be >= 0"))
	}
	return allErrs
}
