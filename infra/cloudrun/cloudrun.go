package cloudrun

import (
	"fmt"
	"strconv"

	dockerbuild "github.com/pulumi/pulumi-docker/sdk/v4/go/docker"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/cloudrun"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/GregMSThompson/spendwise/infra/common"
	"github.com/GregMSThompson/spendwise/infra/docker"
	"github.com/GregMSThompson/spendwise/infra/secret"
)

type secretRefs struct {
	twilioAccountSIDName  pulumi.StringOutput
	twilioAuthTokenName   pulumi.StringOutput
	twilioPhoneNumberName pulumi.StringOutput
	geminiAPIKeyName      pulumi.StringOutput // empty unless ai:provider is gemini
}

func SetupCloudRun(ctx *pulumi.Context, prov *gcp.Provider, kmsKeyName pulumi.StringOutput, res ...pulumi.Resource) (*serviceaccount.Account, error) {
	img, err := buildApiImage(ctx, res...)
	if err != nil {
		return nil, err
	}

	srv, err := enableCloudRun(ctx, prov)
	if err != nil {
		return nil, err
	}

	apiSA, err := createServiceAccount(ctx, prov)
	if err != nil {
		return nil, err
	}

	// mailbox passwords are written at runtime, so the secret manager grant
	// must exist before the service starts
	smSvc, err := secret.SetupSecretManager(ctx, prov, apiSA)
	if err != nil {
		return nil, err
	}

	sr, err := createSecrets(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := createCloudRunService(ctx, img, apiSA, sr, kmsKeyName, prov, srv, smSvc)
	if err != nil {
		return nil, err
	}

	err = setIAMAccessPolicy(ctx, svc, prov)
	if err != nil {
		return nil, err
	}

	return apiSA, nil
}

func buildApiImage(ctx *pulumi.Context, res ...pulumi.Resource) (*dockerbuild.Image, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")

	hash, err := common.GenerateHash("../")
	if err != nil {
		return nil, err
	}

	return dockerbuild.NewImage(ctx, "apiImage", &dockerbuild.ImageArgs{
		Build: dockerbuild.DockerBuildArgs{
			Platform:   pulumi.String("linux/amd64"),
			Context:    pulumi.String(".."),                    // build from repo root
			Dockerfile: pulumi.String("../cmd/api/Dockerfile"), // Dockerfile path relative to repo root
		},
		ImageName: pulumi.String(fmt.Sprintf("%s-docker.pkg.dev/%s/%s/api:%s", region, projectID, docker.RepositoryID, hash)),
	},
		pulumi.DependsOn(res),
	)
}

func enableCloudRun(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "cloudRunService", &projects.ServiceArgs{
		Service: pulumi.String("run.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
}

func createServiceAccount(ctx *pulumi.Context, prov *gcp.Provider) (*serviceaccount.Account, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")

	apiSA, err := serviceaccount.NewAccount(ctx, "apiServiceAccount", &serviceaccount.AccountArgs{
		AccountId:   pulumi.String("api-service"),
		DisplayName: pulumi.String("API Service Account"),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	_, err = projects.NewIAMMember(ctx, "firestoreAccess", &projects.IAMMemberArgs{
		Role: pulumi.String("roles/datastore.user"), // Firestore read/write
		Member: apiSA.Email.ApplyT(func(email string) string {
			return fmt.Sprintf("serviceAccount:%s", email)
		}).(pulumi.StringOutput),
		Project: pulumi.String(projectID),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	return apiSA, nil
}

func createCloudRunService(ctx *pulumi.Context,
	img *dockerbuild.Image,
	apiSA *serviceaccount.Account,
	sr *secretRefs,
	kmsKeyName pulumi.StringOutput,
	prov *gcp.Provider,
	res ...pulumi.Resource) (*cloudrun.Service, error) {
	gcpCfg := config.New(ctx, "gcp")
	crCfg := config.New(ctx, "cloudrun")
	aiCfg := config.New(ctx, "ai")

	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")
	minScale := crCfg.Require("minScale")
	maxScale := crCfg.Require("maxScale")
	cpu := crCfg.Require("cpu")
	memory := crCfg.Require("memory")
	concurrency := crCfg.Require("concurrency")
	logLevel := crCfg.Require("logLevel")
	timeout, _ := strconv.Atoi(crCfg.Require("timeout"))
	aiProvider := aiCfg.Get("provider")
	if aiProvider == "" {
		aiProvider = "vertex"
	}
	vertexModel := aiCfg.Get("model")
	timeZone := crCfg.Get("timezone")
	if timeZone == "" {
		timeZone = "Asia/Kolkata"
	}

	envs := cloudrun.ServiceTemplateSpecContainerEnvArray{
		plainEnv("PROJECTID", pulumi.String(projectID)),
		plainEnv("REGION", pulumi.String(region)),
		plainEnv("LOGLEVEL", pulumi.String(logLevel)),
		plainEnv("AIPROVIDER", pulumi.String(aiProvider)),
		plainEnv("VERTEXMODEL", pulumi.String(vertexModel)),
		plainEnv("KMSKEYNAME", kmsKeyName),
		plainEnv("TIMEZONE", pulumi.String(timeZone)),
		secretEnv("TWILIOACCOUNTSID", sr.twilioAccountSIDName),
		secretEnv("TWILIOAUTHTOKEN", sr.twilioAuthTokenName),
		secretEnv("TWILIOPHONENUMBER", sr.twilioPhoneNumberName),
	}
	if aiProvider == "gemini" {
		envs = append(envs, secretEnv("GEMINIAPIKEY", sr.geminiAPIKeyName))
	}

	return cloudrun.NewService(ctx, "apiService", &cloudrun.ServiceArgs{
		Location: pulumi.String(region),

		Template: &cloudrun.ServiceTemplateArgs{

			Metadata: &cloudrun.ServiceTemplateMetadataArgs{
				// ---- AUTOSCALING + INSTANCE SIZE ----
				Annotations: pulumi.StringMap{
					// Enable Identity Platform (Firebase) authentication
					"run.googleapis.com/launch-stage":      pulumi.String("BETA"),
					"run.googleapis.com/identity-provider": pulumi.String("firebase"),

					// Autoscaling bounds
					"autoscaling.knative.dev/minScale": pulumi.String(minScale),
					"autoscaling.knative.dev/maxScale": pulumi.String(maxScale),

					// Instance sizing
					"run.googleapis.com/cpu":    pulumi.String(cpu),
					"run.googleapis.com/memory": pulumi.String(memory),

					// The in-process scheduler needs CPU between requests
					"run.googleapis.com/cpu-throttling": pulumi.String("false"),

					// Set the number of concurrent requests per container
					"run.googleapis.com/container-concurrency": pulumi.String(concurrency),
				},
			},

			Spec: &cloudrun.ServiceTemplateSpecArgs{
				ServiceAccountName: apiSA.Email,
				TimeoutSeconds:     pulumi.Int(timeout),

				Containers: cloudrun.ServiceTemplateSpecContainerArray{
					&cloudrun.ServiceTemplateSpecContainerArgs{
						Image: img.ImageName,
						Ports: cloudrun.ServiceTemplateSpecContainerPortArray{
							&cloudrun.ServiceTemplateSpecContainerPortArgs{
								ContainerPort: pulumi.Int(8080),
							},
						},
						Envs: envs,
					},
				},
			},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

func setIAMAccessPolicy(ctx *pulumi.Context, svc *cloudrun.Service, prov *gcp.Provider) error {
	gcpCfg := config.New(ctx, "gcp")
	region := gcpCfg.Require("region")

	_, err := cloudrun.NewIamMember(ctx, "denyUnauthenticated", &cloudrun.IamMemberArgs{
		Service:  svc.Name,
		Location: pulumi.String(region),
		Role:     pulumi.String("roles/run.invoker"),

		// Allow requests to reach Identity Platform (Firebase) auth
		Member: pulumi.String("allUsers"),
	},
		pulumi.Provider(prov),
	)
	return err
}

func plainEnv(name string, value pulumi.StringInput) *cloudrun.ServiceTemplateSpecContainerEnvArgs {
	return &cloudrun.ServiceTemplateSpecContainerEnvArgs{
		Name:  pulumi.String(name),
		Value: value,
	}
}

func secretEnv(name string, secretName pulumi.StringOutput) *cloudrun.ServiceTemplateSpecContainerEnvArgs {
	return &cloudrun.ServiceTemplateSpecContainerEnvArgs{
		Name: pulumi.String(name),
		ValueFrom: &cloudrun.ServiceTemplateSpecContainerEnvValueFromArgs{
			SecretKeyRef: &cloudrun.ServiceTemplateSpecContainerEnvValueFromSecretKeyRefArgs{
				Name: secretName,
				Key:  pulumi.String("latest"),
			},
		},
	}
}

func createSecrets(ctx *pulumi.Context) (*secretRefs, error) {
	var err error
	sr := new(secretRefs)

	twilioCfg := config.New(ctx, "twilio")
	sr.twilioAccountSIDName, err = secret.AddSecret(ctx, "twilioAccountSidSecret", "twilioAccountSid", twilioCfg.RequireSecret("accountSid"))
	if err != nil {
		return nil, err
	}
	sr.twilioAuthTokenName, err = secret.AddSecret(ctx, "twilioAuthTokenSecret", "twilioAuthToken", twilioCfg.RequireSecret("authToken"))
	if err != nil {
		return nil, err
	}
	sr.twilioPhoneNumberName, err = secret.AddSecret(ctx, "twilioPhoneNumberSecret", "twilioPhoneNumber", twilioCfg.RequireSecret("phoneNumber"))
	if err != nil {
		return nil, err
	}

	aiCfg := config.New(ctx, "ai")
	if aiCfg.Get("provider") == "gemini" {
		sr.geminiAPIKeyName, err = secret.AddSecret(ctx, "geminiApiKeySecret", "geminiApiKey", aiCfg.RequireSecret("geminiApiKey"))
		if err != nil {
			return nil, err
		}
	}

	return sr, nil
}
