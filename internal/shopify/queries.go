package shopify

const paymentTermsFragment = `
fragment PaymentTermsFields on PaymentTerms {
  id
  dueInDays
  overdue
  paymentTermsName
  paymentTermsType
  paymentSchedules(first: 10) {
    nodes {
      id
      dueAt
      issuedAt
      completedAt
    }
  }
}`

const orderFragment = `
fragment OrderFields on Order {
  id
  name
  tags
  displayFulfillmentStatus
  paymentTerms {
    ...PaymentTermsFields
  }
}` + paymentTermsFragment

const draftOrderFragment = `
fragment DraftOrderFields on DraftOrder {
  id
  name
  note: note2
  totalShippingPrice
  shippingLine {
    code
    title
    custom
  }
}`

const webhookSubscriptionFragment = `
fragment WebhookSubscriptionFields on WebhookSubscription {
  id
  topic
  createdAt
  endpoint {
    __typename
    ... on WebhookPubSubEndpoint {
      pubSubProject
      pubSubTopic
    }
  }
}`

const orderByIDQuery = `
query order($id: ID!) {
  order(id: $id) {
    ...OrderFields
  }
}` + orderFragment

const paymentTermsUpdateMutation = `
mutation paymentTermsUpdate($input: PaymentTermsUpdateInput!) {
  paymentTermsUpdate(input: $input) {
    paymentTerms {
      ...PaymentTermsFields
    }
    userErrors {
      code
      field
      message
    }
  }
}` + paymentTermsFragment

const tagsAddMutation = `
mutation tagsAdd($id: ID!, $tags: [String!]!) {
  tagsAdd(id: $id, tags: $tags) {
    node { id }
    userErrors { field message }
  }
}`

const draftOrderByIDQuery = `
query draftOrder($id: ID!) {
  draftOrder(id: $id) {
    ...DraftOrderFields
  }
}` + draftOrderFragment

const draftOrderUpdateMutation = `
mutation draftOrderUpdate($id: ID!, $input: DraftOrderInput!) {
  draftOrderUpdate(id: $id, input: $input) {
    draftOrder {
      ...DraftOrderFields
    }
    userErrors {
      field
      message
    }
  }
}` + draftOrderFragment

// Pagination past the first page is not supported.
const webhookSubscriptionsQuery = `
query webhookSubscriptions {
  webhookSubscriptions(first: 100) {
    nodes {
      ...WebhookSubscriptionFields
    }
  }
}` + webhookSubscriptionFragment

const pubSubWebhookCreateMutation = `
mutation pubSubWebhookSubscriptionCreate($topic: WebhookSubscriptionTopic!, $input: PubSubWebhookSubscriptionInput!) {
  pubSubWebhookSubscriptionCreate(topic: $topic, webhookSubscription: $input) {
    webhookSubscription {
      ...WebhookSubscriptionFields
    }
    userErrors {
      field
      message
    }
  }
}` + webhookSubscriptionFragment

const webhookDeleteMutation = `
mutation webhookSubscriptionDelete($id: ID!) {
  webhookSubscriptionDelete(id: $id) {
    deletedWebhookSubscriptionId
    userErrors {
      field
      message
    }
  }
}`

const shopInfoQuery = `
query shopInfo {
  shop {
    name
    myshopifyDomain
  }
}`
